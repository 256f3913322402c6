package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/coinninja"
)

// updateLedger runs after transaction persistence within the same pass so the
// index computation reflects the just-persisted data, never a stale view. It
// marks the addresses the summaries touched as used, prunes the gap set and
// recomputes the last used index of both chains.
func (s *syncService) updateLedger(
	ctx context.Context, summaries []coinninja.AddressTransactionSummary,
) error {
	walletRepo := s.repoManager.WalletRepository()

	addresses, err := walletRepo.GetAllAddresses(ctx)
	if err != nil {
		return err
	}
	byAddress := make(map[string]domain.Address, len(addresses))
	for _, addr := range addresses {
		byAddress[addr.Address] = addr
	}

	used := make([]string, 0, len(summaries))
	seen := make(map[string]struct{})
	for _, summary := range summaries {
		if _, ok := byAddress[summary.Address]; !ok {
			// Integrity failure on a single item, the rest of the batch
			// still succeeds.
			log.WithField("address", summary.Address).
				Warnf("sync: %s", ErrUnknownAddress)
			continue
		}
		if _, ok := seen[summary.Address]; ok {
			continue
		}
		seen[summary.Address] = struct{}{}
		used = append(used, summary.Address)
	}

	if err := walletRepo.MarkAddressesUsed(ctx, used); err != nil {
		return err
	}

	// Re-read so the max-index math sees the usage flags just written.
	addresses, err = walletRepo.GetAllAddresses(ctx)
	if err != nil {
		return err
	}
	maxReceive, maxChange := maxUsedIndexes(addresses, s.coin)

	return walletRepo.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			for _, addr := range addresses {
				if addr.UsedOnChain && !addr.ServerPool &&
					addr.Path.Chain == domain.ReceiveChain {
					w.RemoveGap(addr.Path.Index)
				}
			}
			w.UpdateLastIndexes(maxReceive, maxChange)
			return w, nil
		},
	)
}

// maxUsedIndexes scans the persisted derivation paths tied to locally derived
// addresses with on-chain usage and returns the highest index per chain.
// Server-pool addresses are excluded: they are handed out ahead of local
// confirmation and must never perturb the locally tracked maximum, otherwise
// the wallet could skip or reuse a significant derivation slot.
func maxUsedIndexes(
	addresses []domain.Address, coin domain.CoinScheme,
) (int, int) {
	maxReceive, maxChange := domain.UnusedIndex, domain.UnusedIndex
	for _, addr := range addresses {
		if addr.ServerPool || !addr.UsedOnChain || !addr.Path.BelongsTo(coin) {
			continue
		}
		index := int(addr.Path.Index)
		switch addr.Path.Chain {
		case domain.ReceiveChain:
			if index > maxReceive {
				maxReceive = index
			}
		case domain.ChangeChain:
			if index > maxChange {
				maxChange = index
			}
		}
	}
	return maxReceive, maxChange
}
