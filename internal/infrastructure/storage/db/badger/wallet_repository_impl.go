package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type walletRepositoryImpl struct {
	store *badgerhold.Store
}

func NewWalletRepositoryImpl(store *badgerhold.Store) domain.WalletRepository {
	return walletRepositoryImpl{store: store}
}

func (w walletRepositoryImpl) GetOrCreateWallet(
	ctx context.Context, coin domain.CoinScheme,
) (*domain.Wallet, error) {
	wallet, err := w.getWallet(ctx)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(coin)
	if err := w.insertWallet(ctx, *wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (w walletRepositoryImpl) GetWallet(
	ctx context.Context,
) (*domain.Wallet, error) {
	return w.getWallet(ctx)
}

func (w walletRepositoryImpl) UpdateWallet(
	ctx context.Context,
	updateFn func(wlt *domain.Wallet) (*domain.Wallet, error),
) error {
	currentWallet, err := w.getWallet(ctx)
	if err != nil {
		return err
	}
	if currentWallet == nil {
		return badgerhold.ErrNotFound
	}

	updatedWallet, err := updateFn(currentWallet)
	if err != nil {
		return err
	}

	return w.updateWallet(ctx, *updatedWallet)
}

func (w walletRepositoryImpl) AddAddresses(
	ctx context.Context, addresses []domain.Address,
) error {
	for _, address := range addresses {
		if err := w.insertAddress(ctx, address); err != nil {
			return err
		}
	}
	return nil
}

func (w walletRepositoryImpl) GetAllAddresses(
	ctx context.Context,
) ([]domain.Address, error) {
	query := &badgerhold.Query{}
	return w.findAddresses(ctx, query)
}

func (w walletRepositoryImpl) GetAddressesForChain(
	ctx context.Context, chain uint32,
) ([]domain.Address, error) {
	query := badgerhold.Where("Path.Chain").Eq(chain)
	return w.findAddresses(ctx, query)
}

func (w walletRepositoryImpl) MarkAddressesUsed(
	ctx context.Context, addresses []string,
) error {
	for _, addr := range addresses {
		address, err := w.getAddress(ctx, addr)
		if err != nil {
			return err
		}
		if address == nil || address.UsedOnChain {
			continue
		}
		address.UsedOnChain = true
		if err := w.updateAddress(ctx, *address); err != nil {
			return err
		}
	}
	return nil
}

func (w walletRepositoryImpl) getWallet(
	ctx context.Context,
) (*domain.Wallet, error) {
	var wallet domain.Wallet
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = w.store.TxGet(tx, domain.WalletKey, &wallet)
	} else {
		err = w.store.Get(domain.WalletKey, &wallet)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (w walletRepositoryImpl) insertWallet(
	ctx context.Context, wallet domain.Wallet,
) error {
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = w.store.TxInsert(tx, domain.WalletKey, &wallet)
	} else {
		err = w.store.Insert(domain.WalletKey, &wallet)
	}
	if err != nil && err != badgerhold.ErrKeyExists {
		return err
	}
	return nil
}

func (w walletRepositoryImpl) updateWallet(
	ctx context.Context, wallet domain.Wallet,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return w.store.TxUpdate(tx, domain.WalletKey, wallet)
	}
	return w.store.Update(domain.WalletKey, wallet)
}

func (w walletRepositoryImpl) getAddress(
	ctx context.Context, addr string,
) (*domain.Address, error) {
	var address domain.Address
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = w.store.TxGet(tx, addr, &address)
	} else {
		err = w.store.Get(addr, &address)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

func (w walletRepositoryImpl) insertAddress(
	ctx context.Context, address domain.Address,
) error {
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = w.store.TxInsert(tx, address.Address, &address)
	} else {
		err = w.store.Insert(address.Address, &address)
	}
	if err != nil && err != badgerhold.ErrKeyExists {
		return err
	}
	return nil
}

func (w walletRepositoryImpl) updateAddress(
	ctx context.Context, address domain.Address,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return w.store.TxUpdate(tx, address.Address, address)
	}
	return w.store.Update(address.Address, address)
}

func (w walletRepositoryImpl) findAddresses(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Address, error) {
	var addresses []domain.Address
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = w.store.TxFind(tx, &addresses, query)
	} else {
		err = w.store.Find(&addresses, query)
	}
	return addresses, err
}
