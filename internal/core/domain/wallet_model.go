package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// WalletKey is the fixed store key of the singleton Wallet record. Exactly
// one wallet exists per datadir; it is created on the first sync and removed
// only by a full reset.
const WalletKey = "wallet"

// CoinScheme identifies the usable coin of the wallet's HD tree, that is the
// hardened prefix m/purpose'/coinType'/account' all derivation paths share.
type CoinScheme struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
}

// FeeSchedule holds the sats/vbyte estimates reported by the last check-in.
type FeeSchedule struct {
	Fast decimal.Decimal
	Med  decimal.Decimal
	Slow decimal.Decimal
}

// FiatPrice holds the BTC/fiat rate reported by the last check-in.
type FiatPrice struct {
	Last     decimal.Decimal
	Currency string
}

// Wallet is the data structure representing the local wallet entity. It owns
// the last used derivation indexes of both chains and the set of receive
// indexes that were generated but not yet confirmed used on-chain.
type Wallet struct {
	ID                 string
	Coin               CoinScheme
	LastReceiveIndex   int
	LastChangeIndex    int
	ReceiveAddressGaps []uint32
	BlockHeight        uint32
	Fees               FeeSchedule
	Price              FiatPrice
	LastSyncTime       time.Time
	LastFullSyncTime   time.Time
}

// NewWallet returns a wallet for the given coin scheme with both index
// counters at the unused sentinel and an empty gap set.
func NewWallet(coin CoinScheme) *Wallet {
	return &Wallet{
		ID:                 WalletKey,
		Coin:               coin,
		LastReceiveIndex:   UnusedIndex,
		LastChangeIndex:    UnusedIndex,
		ReceiveAddressGaps: []uint32{},
	}
}

// UpdateLastIndexes raises the index counters to the given values. Counters
// are monotonically non-decreasing, a stale view of the persisted paths can
// never lower them. Gap indexes at or below the new receive counter are
// pruned since they are confirmed used or skipped for good.
func (w *Wallet) UpdateLastIndexes(receiveIndex, changeIndex int) {
	if receiveIndex > w.LastReceiveIndex {
		w.LastReceiveIndex = receiveIndex
	}
	if changeIndex > w.LastChangeIndex {
		w.LastChangeIndex = changeIndex
	}
	if w.LastReceiveIndex >= 0 {
		w.pruneGapsThrough(uint32(w.LastReceiveIndex))
	}
}

// AddGap appends a receive index to the gap set if not already present and
// not already confirmed used.
func (w *Wallet) AddGap(index uint32) {
	if w.LastReceiveIndex >= 0 && index <= uint32(w.LastReceiveIndex) {
		return
	}
	for _, gap := range w.ReceiveAddressGaps {
		if gap == index {
			return
		}
	}
	w.ReceiveAddressGaps = append(w.ReceiveAddressGaps, index)
	sort.Slice(w.ReceiveAddressGaps, func(i, j int) bool {
		return w.ReceiveAddressGaps[i] < w.ReceiveAddressGaps[j]
	})
}

// RemoveGap drops a single index from the gap set, typically because it was
// observed used on-chain.
func (w *Wallet) RemoveGap(index uint32) {
	gaps := make([]uint32, 0, len(w.ReceiveAddressGaps))
	for _, gap := range w.ReceiveAddressGaps {
		if gap != index {
			gaps = append(gaps, gap)
		}
	}
	w.ReceiveAddressGaps = gaps
}

// HasGap returns whether the given receive index is in the gap set.
func (w *Wallet) HasGap(index uint32) bool {
	for _, gap := range w.ReceiveAddressGaps {
		if gap == index {
			return true
		}
	}
	return false
}

// NextReceiveIndex returns the index the next receive address must be derived
// at. Gap indexes are never handed out again for spending allocation.
func (w *Wallet) NextReceiveIndex() uint32 {
	next := uint32(w.LastReceiveIndex + 1)
	for _, gap := range w.ReceiveAddressGaps {
		if gap >= next {
			next = gap + 1
		}
	}
	return next
}

// NextChangeIndex returns the index the next change address must be derived at.
func (w *Wallet) NextChangeIndex() uint32 {
	return uint32(w.LastChangeIndex + 1)
}

// IsZero returns whether the wallet is uninitialized.
func (w *Wallet) IsZero() bool {
	return w == nil || w.ID == ""
}

func (w *Wallet) pruneGapsThrough(index uint32) {
	gaps := make([]uint32, 0, len(w.ReceiveAddressGaps))
	for _, gap := range w.ReceiveAddressGaps {
		if gap > index {
			gaps = append(gaps, gap)
		}
	}
	w.ReceiveAddressGaps = gaps
}
