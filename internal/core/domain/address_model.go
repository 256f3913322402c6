package domain

import (
	"fmt"
	"time"
)

// DerivationPath is the full path of a derived address in the form
// m/purpose'/coinType'/account'/chain/index. The tuple is unique per wallet.
type DerivationPath struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
	Chain    uint32
	Index    uint32
}

func (p DerivationPath) String() string {
	return fmt.Sprintf(
		"m/%d'/%d'/%d'/%d/%d",
		p.Purpose, p.CoinType, p.Account, p.Chain, p.Index,
	)
}

// BelongsTo returns whether the path is rooted in the given coin scheme.
func (p DerivationPath) BelongsTo(coin CoinScheme) bool {
	return p.Purpose == coin.Purpose &&
		p.CoinType == coin.CoinType &&
		p.Account == coin.Account
}

// Address associates a derived public address with its derivation path.
// ServerPool marks addresses pre-generated by the server to satisfy incoming
// DropBit requests before the wallet confirmed them locally; they never count
// toward the max-used-index math of the ledger.
type Address struct {
	Address     string
	Path        DerivationPath
	ServerPool  bool
	UsedOnChain bool
	CreatedAt   time.Time
}

// NewAddress returns a locally derived address for the given path.
func NewAddress(addr string, path DerivationPath) Address {
	return Address{
		Address:   addr,
		Path:      path,
		CreatedAt: time.Now(),
	}
}

// NewServerPoolAddress returns an address handed out by the server-side pool.
func NewServerPoolAddress(addr string, path DerivationPath) Address {
	a := NewAddress(addr, path)
	a.ServerPool = true
	return a
}
