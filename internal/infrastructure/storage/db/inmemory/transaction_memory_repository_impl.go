package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type transactionInmemoryStore struct {
	transactions map[string]domain.Transaction
	locker       *sync.Mutex
}

type transactionRepositoryImpl struct {
	store *transactionInmemoryStore
}

// NewTransactionRepositoryImpl returns a new inmemory TransactionRepository
// implementation.
func NewTransactionRepositoryImpl() domain.TransactionRepository {
	return &transactionRepositoryImpl{
		store: &transactionInmemoryStore{
			transactions: map[string]domain.Transaction{},
			locker:       &sync.Mutex{},
		},
	}
}

func (r transactionRepositoryImpl) GetTransaction(
	_ context.Context, txid string,
) (*domain.Transaction, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	tx, ok := r.store.transactions[txid]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (r transactionRepositoryImpl) GetAllTransactions(
	_ context.Context,
) ([]*domain.Transaction, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.allTransactions(), nil
}

func (r transactionRepositoryImpl) GetUnconfirmedTransactions(
	_ context.Context,
) ([]*domain.Transaction, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	txs := make([]*domain.Transaction, 0)
	for _, tx := range r.allTransactions() {
		if tx.Confirmations == 0 && !tx.Failed {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (r transactionRepositoryImpl) AddTransaction(
	_ context.Context, tx *domain.Transaction,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.transactions[tx.Txid]; ok {
		return domain.ErrTransactionAlreadyBroadcast
	}
	r.store.transactions[tx.Txid] = *tx
	return nil
}

func (r transactionRepositoryImpl) UpsertTransaction(
	_ context.Context, tx *domain.Transaction,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.transactions[tx.Txid] = *tx
	return nil
}

func (r transactionRepositoryImpl) UpdateTransaction(
	_ context.Context,
	txid string,
	updateFn func(tx *domain.Transaction) (*domain.Transaction, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	currentTx, ok := r.store.transactions[txid]
	if !ok {
		return ErrTransactionNotFound
	}

	updatedTx, err := updateFn(&currentTx)
	if err != nil {
		return err
	}

	r.store.transactions[txid] = *updatedTx
	return nil
}

func (r transactionRepositoryImpl) DeleteTransaction(
	_ context.Context, txid string,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	delete(r.store.transactions, txid)
	return nil
}

func (r transactionRepositoryImpl) allTransactions() []*domain.Transaction {
	txs := make([]*domain.Transaction, 0, len(r.store.transactions))
	for _, tx := range r.store.transactions {
		tx := tx
		txs = append(txs, &tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].SortTime.Before(txs[j].SortTime)
	})
	return txs
}
