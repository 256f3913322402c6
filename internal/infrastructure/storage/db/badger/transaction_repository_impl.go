package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type transactionRepositoryImpl struct {
	store *badgerhold.Store
}

func NewTransactionRepositoryImpl(
	store *badgerhold.Store,
) domain.TransactionRepository {
	return transactionRepositoryImpl{store: store}
}

func (t transactionRepositoryImpl) GetTransaction(
	ctx context.Context, txid string,
) (*domain.Transaction, error) {
	return t.getTransaction(ctx, txid)
}

func (t transactionRepositoryImpl) GetAllTransactions(
	ctx context.Context,
) ([]*domain.Transaction, error) {
	query := &badgerhold.Query{}
	return t.findTransactions(ctx, query)
}

func (t transactionRepositoryImpl) GetUnconfirmedTransactions(
	ctx context.Context,
) ([]*domain.Transaction, error) {
	query := badgerhold.
		Where("Confirmations").Eq(uint32(0)).
		And("Failed").Eq(false)
	return t.findTransactions(ctx, query)
}

func (t transactionRepositoryImpl) AddTransaction(
	ctx context.Context, tx *domain.Transaction,
) error {
	err := t.insertTransaction(ctx, *tx)
	if err == badgerhold.ErrKeyExists {
		return domain.ErrTransactionAlreadyBroadcast
	}
	return err
}

func (t transactionRepositoryImpl) UpsertTransaction(
	ctx context.Context, tx *domain.Transaction,
) error {
	if ctx.Value("tx") != nil {
		btx := ctx.Value("tx").(*badger.Txn)
		return t.store.TxUpsert(btx, tx.Txid, tx)
	}
	return t.store.Upsert(tx.Txid, tx)
}

func (t transactionRepositoryImpl) UpdateTransaction(
	ctx context.Context,
	txid string,
	updateFn func(tx *domain.Transaction) (*domain.Transaction, error),
) error {
	currentTx, err := t.getTransaction(ctx, txid)
	if err != nil {
		return err
	}
	if currentTx == nil {
		return badgerhold.ErrNotFound
	}

	updatedTx, err := updateFn(currentTx)
	if err != nil {
		return err
	}

	if ctx.Value("tx") != nil {
		btx := ctx.Value("tx").(*badger.Txn)
		return t.store.TxUpdate(btx, txid, *updatedTx)
	}
	return t.store.Update(txid, *updatedTx)
}

func (t transactionRepositoryImpl) DeleteTransaction(
	ctx context.Context, txid string,
) error {
	var err error
	if ctx.Value("tx") != nil {
		btx := ctx.Value("tx").(*badger.Txn)
		err = t.store.TxDelete(btx, txid, domain.Transaction{})
	} else {
		err = t.store.Delete(txid, domain.Transaction{})
	}
	if err == badgerhold.ErrNotFound {
		return nil
	}
	return err
}

func (t transactionRepositoryImpl) getTransaction(
	ctx context.Context, txid string,
) (*domain.Transaction, error) {
	var tx domain.Transaction
	var err error
	if ctx.Value("tx") != nil {
		btx := ctx.Value("tx").(*badger.Txn)
		err = t.store.TxGet(btx, txid, &tx)
	} else {
		err = t.store.Get(txid, &tx)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (t transactionRepositoryImpl) insertTransaction(
	ctx context.Context, tx domain.Transaction,
) error {
	if ctx.Value("tx") != nil {
		btx := ctx.Value("tx").(*badger.Txn)
		return t.store.TxInsert(btx, tx.Txid, &tx)
	}
	return t.store.Insert(tx.Txid, &tx)
}

func (t transactionRepositoryImpl) findTransactions(
	ctx context.Context, query *badgerhold.Query,
) ([]*domain.Transaction, error) {
	var txs []domain.Transaction
	var err error
	if ctx.Value("tx") != nil {
		btx := ctx.Value("tx").(*badger.Txn)
		err = t.store.TxFind(btx, &txs, query)
	} else {
		err = t.store.Find(&txs, query)
	}
	if err != nil {
		return nil, err
	}

	list := make([]*domain.Transaction, 0, len(txs))
	for i := range txs {
		list = append(list, &txs[i])
	}
	return list, nil
}
