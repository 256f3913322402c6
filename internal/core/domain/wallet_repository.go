package domain

import "context"

// WalletRepository is the abstraction for any kind of database intended to
// persist the singleton Wallet and its derived addresses.
type WalletRepository interface {
	// GetOrCreateWallet returns the wallet, creating it for the given coin
	// scheme if not found.
	GetOrCreateWallet(ctx context.Context, coin CoinScheme) (*Wallet, error)
	// GetWallet returns the wallet, or nil if none was created yet.
	GetWallet(ctx context.Context) (*Wallet, error)
	// UpdateWallet allows to commit multiple changes to the wallet in a
	// transactional way.
	UpdateWallet(
		ctx context.Context,
		updateFn func(w *Wallet) (*Wallet, error),
	) error
	// AddAddresses inserts the given addresses, skipping the ones already
	// persisted for the same derivation path.
	AddAddresses(ctx context.Context, addresses []Address) error
	// GetAllAddresses returns every persisted address.
	GetAllAddresses(ctx context.Context) ([]Address, error)
	// GetAddressesForChain returns the addresses derived on the given chain.
	GetAddressesForChain(ctx context.Context, chain uint32) ([]Address, error)
	// MarkAddressesUsed flags the given addresses as observed used on-chain.
	MarkAddressesUsed(ctx context.Context, addresses []string) error
}
