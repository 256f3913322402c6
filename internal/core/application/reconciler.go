package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/coinninja"
	"github.com/coinninja/dropbitd/pkg/stats"
)

// persistTransactions upserts the server-reported transactions by txid inside
// the caller's transaction boundary. With fullSync the response set is
// canonical and any persisted txid absent from it is deleted, except records
// still awaiting their first server confirmation, which grooming owns.
// Without fullSync absence does not imply non-existence and nothing is
// deleted. Cached classifications are recomputed against the current owned
// address set on every upsert.
func (s *syncService) persistTransactions(
	ctx context.Context,
	responses []coinninja.TransactionResponse,
	tipHeight uint32,
	fullSync bool,
) (int, int, error) {
	walletRepo := s.repoManager.WalletRepository()
	txRepo := s.repoManager.TransactionRepository()
	invitationRepo := s.repoManager.InvitationRepository()

	addresses, err := walletRepo.GetAllAddresses(ctx)
	if err != nil {
		return 0, 0, err
	}
	owned := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		owned = append(owned, addr.Address)
	}
	ownedSet := domain.NewAddressSet(owned)

	persisted := 0
	for _, res := range responses {
		if res.Txid == "" {
			log.Warn("sync: skipping transaction response with null txid")
			continue
		}

		tx, err := txRepo.GetTransaction(ctx, res.Txid)
		if err != nil {
			return persisted, 0, err
		}
		if tx == nil {
			tx = &domain.Transaction{
				Txid:     res.Txid,
				SortTime: time.Unix(res.ReceivedAt, 0),
			}
		}

		tx.Promote(
			res.BlockHash,
			res.BlockHeight,
			domain.ConfirmationsFor(res.BlockHeight, tipHeight),
			vinsFromResponse(res.Vins),
			voutsFromResponse(res.Vouts),
		)

		if tx.InvitationID == "" {
			invitation, err := invitationRepo.GetInvitationWithTxid(ctx, tx.Txid)
			if err != nil {
				return persisted, 0, err
			}
			if invitation != nil {
				tx.InvitationID = invitation.ID
			}
		}

		tx.Reclassify(ownedSet)

		if err := txRepo.UpsertTransaction(ctx, tx); err != nil {
			return persisted, 0, err
		}
		persisted++
		stats.TransactionsPersisted.Inc()
	}

	deleted := 0
	if fullSync {
		listed := make(map[string]struct{}, len(responses))
		for _, res := range responses {
			listed[res.Txid] = struct{}{}
		}

		all, err := txRepo.GetAllTransactions(ctx)
		if err != nil {
			return persisted, deleted, err
		}
		for _, tx := range all {
			if _, ok := listed[tx.Txid]; ok {
				continue
			}
			if tx.IsTemporary() {
				continue
			}
			if err := txRepo.DeleteTransaction(ctx, tx.Txid); err != nil {
				return persisted, deleted, err
			}
			deleted++
		}
	}

	return persisted, deleted, nil
}

func vinsFromResponse(vins []coinninja.VinResponse) []domain.Vin {
	out := make([]domain.Vin, 0, len(vins))
	for _, vin := range vins {
		out = append(out, domain.Vin{
			PreviousTxid:  vin.PreviousTxid,
			PreviousIndex: vin.PreviousIndex,
			Addresses:     vin.Addresses,
			Value:         vin.Value,
		})
	}
	return out
}

func voutsFromResponse(vouts []coinninja.VoutResponse) []domain.Vout {
	out := make([]domain.Vout, 0, len(vouts))
	for _, vout := range vouts {
		out = append(out, domain.Vout{
			Index:     vout.N,
			Addresses: vout.Addresses,
			Value:     vout.Value,
		})
	}
	return out
}
