package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/stats"
)

// groomFailedBroadcasts is the last stage of a sync pass. A locally broadcast
// transaction older than its age threshold, with zero confirmations, absent
// from the canonical txid set of the pass AND confirmed non-existent by the
// chain explorer is flagged as failed. Both checks are required: a tx can be
// genuinely slow to confirm without being failed, a single missing-from-set
// observation is not sufficient evidence. Grooming never deletes, the flag
// lets callers distinguish failed from pending from confirmed.
func (s *syncService) groomFailedBroadcasts(
	ctx context.Context, canonical map[string]struct{},
) (int, error) {
	candidates, err := s.groomingCandidates(ctx, canonical)
	if err != nil {
		return 0, err
	}
	if len(candidates) <= 0 {
		return 0, nil
	}

	groomed := 0
	for _, tx := range candidates {
		exists, err := s.explorerSvc.HasTransaction(tx.Txid)
		if err != nil {
			// Grooming outcomes are classifications, not pipeline errors. An
			// unreachable explorer just defers the decision to the next pass.
			log.WithError(err).WithField("txid", tx.Txid).
				Warn("sync: skipping failure check")
			continue
		}
		if exists {
			continue
		}

		if _, err := s.repoManager.RunTransaction(
			ctx, !readOnlyTx,
			func(ctx context.Context) (interface{}, error) {
				return nil, s.repoManager.TransactionRepository().UpdateTransaction(
					ctx, tx.Txid,
					func(t *domain.Transaction) (*domain.Transaction, error) {
						t.MarkFailed(time.Now())
						return t, nil
					},
				)
			},
		); err != nil {
			return groomed, err
		}

		groomed++
		stats.TransactionsGroomed.Inc()
		log.WithField("txid", tx.Txid).Info("sync: broadcast flagged as failed")
	}
	return groomed, nil
}

func (s *syncService) groomingCandidates(
	ctx context.Context, canonical map[string]struct{},
) ([]*domain.Transaction, error) {
	iCandidates, err := s.repoManager.RunTransaction(
		ctx, readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			unconfirmed, err := s.repoManager.TransactionRepository().
				GetUnconfirmedTransactions(ctx)
			if err != nil {
				return nil, err
			}

			now := time.Now()
			candidates := make([]*domain.Transaction, 0, len(unconfirmed))
			for _, tx := range unconfirmed {
				if tx.Failed || tx.BroadcastTime.IsZero() {
					continue
				}
				if _, listed := canonical[tx.Txid]; listed {
					continue
				}

				threshold := PlainFailureThreshold
				if tx.InvitationID != "" {
					completed, err := s.invitationCompleted(ctx, tx.InvitationID)
					if err != nil {
						return nil, err
					}
					if completed {
						// The invitation's terminal state takes precedence.
						continue
					}
					threshold = InvitationFailureThreshold
				}

				if now.Sub(tx.BroadcastTime) < threshold {
					continue
				}
				candidates = append(candidates, tx)
			}
			return candidates, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return iCandidates.([]*domain.Transaction), nil
}

func (s *syncService) invitationCompleted(
	ctx context.Context, id string,
) (bool, error) {
	invitation, err := s.repoManager.InvitationRepository().GetInvitation(ctx, id)
	if err != nil {
		return false, err
	}
	return invitation != nil && invitation.IsCompleted(), nil
}
