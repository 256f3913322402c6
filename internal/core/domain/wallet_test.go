package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

func TestWalletUpdateLastIndexes(t *testing.T) {
	t.Parallel()

	wallet := newWallet()
	require.Equal(t, domain.UnusedIndex, wallet.LastReceiveIndex)
	require.Equal(t, domain.UnusedIndex, wallet.LastChangeIndex)

	wallet.UpdateLastIndexes(4, 1)
	require.Equal(t, 4, wallet.LastReceiveIndex)
	require.Equal(t, 1, wallet.LastChangeIndex)

	// counters never move backwards
	wallet.UpdateLastIndexes(2, 0)
	require.Equal(t, 4, wallet.LastReceiveIndex)
	require.Equal(t, 1, wallet.LastChangeIndex)
}

func TestWalletGapPruning(t *testing.T) {
	t.Parallel()

	wallet := newWallet()
	wallet.AddGap(3)
	wallet.AddGap(5)
	wallet.AddGap(8)

	wallet.UpdateLastIndexes(5, domain.UnusedIndex)
	require.False(t, wallet.HasGap(3))
	require.False(t, wallet.HasGap(5))
	require.True(t, wallet.HasGap(8))
}

func TestWalletAddGap(t *testing.T) {
	t.Parallel()

	wallet := newWallet()
	wallet.UpdateLastIndexes(4, domain.UnusedIndex)

	// indexes at or below the counter are already settled
	wallet.AddGap(3)
	wallet.AddGap(4)
	require.Empty(t, wallet.ReceiveAddressGaps)

	wallet.AddGap(7)
	wallet.AddGap(5)
	wallet.AddGap(7)
	require.Equal(t, []uint32{5, 7}, wallet.ReceiveAddressGaps)

	wallet.RemoveGap(5)
	require.Equal(t, []uint32{7}, wallet.ReceiveAddressGaps)
}

func TestWalletNextIndexes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		lastReceive     int
		gaps            []uint32
		expectedReceive uint32
	}{
		{
			name:            "fresh_wallet",
			lastReceive:     domain.UnusedIndex,
			gaps:            nil,
			expectedReceive: 0,
		},
		{
			name:            "no_gaps",
			lastReceive:     4,
			gaps:            nil,
			expectedReceive: 5,
		},
		{
			name:            "skips_past_gaps",
			lastReceive:     4,
			gaps:            []uint32{6, 9},
			expectedReceive: 10,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wallet := newWallet()
			wallet.UpdateLastIndexes(tt.lastReceive, domain.UnusedIndex)
			for _, gap := range tt.gaps {
				wallet.AddGap(gap)
			}
			require.Equal(t, tt.expectedReceive, wallet.NextReceiveIndex())
		})
	}
}

func TestWalletNextChangeIndex(t *testing.T) {
	t.Parallel()

	wallet := newWallet()
	require.Equal(t, uint32(0), wallet.NextChangeIndex())

	wallet.UpdateLastIndexes(domain.UnusedIndex, 2)
	require.Equal(t, uint32(3), wallet.NextChangeIndex())
}

func TestWalletIsZero(t *testing.T) {
	t.Parallel()

	var nilWallet *domain.Wallet
	require.True(t, nilWallet.IsZero())
	require.True(t, (&domain.Wallet{}).IsZero())
	require.False(t, newWallet().IsZero())
}

func newWallet() *domain.Wallet {
	return domain.NewWallet(domain.CoinScheme{
		Purpose:  domain.SegwitPurpose,
		CoinType: domain.MainnetCoinType,
		Account:  domain.DefaultAccount,
	})
}
