package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type walletInmemoryStore struct {
	wallet    *domain.Wallet
	addresses map[string]domain.Address
	locker    *sync.Mutex
}

type walletRepositoryImpl struct {
	store *walletInmemoryStore
}

// NewWalletRepositoryImpl returns a new inmemory WalletRepository implementation.
func NewWalletRepositoryImpl() domain.WalletRepository {
	return &walletRepositoryImpl{
		store: &walletInmemoryStore{
			addresses: map[string]domain.Address{},
			locker:    &sync.Mutex{},
		},
	}
}

func (r walletRepositoryImpl) GetOrCreateWallet(
	_ context.Context, coin domain.CoinScheme,
) (*domain.Wallet, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.wallet == nil {
		r.store.wallet = domain.NewWallet(coin)
	}
	wallet := *r.store.wallet
	return &wallet, nil
}

func (r walletRepositoryImpl) GetWallet(
	_ context.Context,
) (*domain.Wallet, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.wallet == nil {
		return nil, nil
	}
	wallet := *r.store.wallet
	return &wallet, nil
}

func (r walletRepositoryImpl) UpdateWallet(
	_ context.Context,
	updateFn func(w *domain.Wallet) (*domain.Wallet, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.wallet == nil {
		return ErrWalletNotFound
	}

	wallet := *r.store.wallet
	updatedWallet, err := updateFn(&wallet)
	if err != nil {
		return err
	}

	r.store.wallet = updatedWallet
	return nil
}

func (r walletRepositoryImpl) AddAddresses(
	_ context.Context, addresses []domain.Address,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	for _, address := range addresses {
		if _, ok := r.store.addresses[address.Address]; ok {
			continue
		}
		r.store.addresses[address.Address] = address
	}
	return nil
}

func (r walletRepositoryImpl) GetAllAddresses(
	_ context.Context,
) ([]domain.Address, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.allAddresses(), nil
}

func (r walletRepositoryImpl) GetAddressesForChain(
	_ context.Context, chain uint32,
) ([]domain.Address, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	addresses := make([]domain.Address, 0)
	for _, address := range r.allAddresses() {
		if address.Path.Chain == chain {
			addresses = append(addresses, address)
		}
	}
	return addresses, nil
}

func (r walletRepositoryImpl) MarkAddressesUsed(
	_ context.Context, addresses []string,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	for _, addr := range addresses {
		address, ok := r.store.addresses[addr]
		if !ok {
			continue
		}
		address.UsedOnChain = true
		r.store.addresses[addr] = address
	}
	return nil
}

func (r walletRepositoryImpl) allAddresses() []domain.Address {
	addresses := make([]domain.Address, 0, len(r.store.addresses))
	for _, address := range r.store.addresses {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		if addresses[i].Path.Chain != addresses[j].Path.Chain {
			return addresses[i].Path.Chain < addresses[j].Path.Chain
		}
		return addresses[i].Path.Index < addresses[j].Path.Index
	})
	return addresses
}
