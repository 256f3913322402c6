package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/pkg/coinninja"
	"github.com/coinninja/dropbitd/pkg/stats"
)

// processInvitations reconciles the server-reported invitations against the
// local state machine and expires the local ones whose validity window
// passed. Per-item failures are logged and skipped, one bad invitation must
// not abort the whole pass.
func (s *syncService) processInvitations(
	ctx context.Context, responses []coinninja.InvitationResponse,
) (int, error) {
	invitationRepo := s.repoManager.InvitationRepository()
	updated := 0

	for _, res := range responses {
		if res.ID == "" {
			log.Warn("sync: skipping invitation response with null id")
			continue
		}

		invitation, err := invitationRepo.GetInvitation(ctx, res.ID)
		if err != nil {
			return updated, err
		}
		if invitation == nil {
			invitation = invitationFromResponse(res)
			if err := invitationRepo.AddInvitation(ctx, invitation); err != nil {
				return updated, err
			}
		}

		changed, err := s.applyServerStatus(ctx, invitation, res)
		if err != nil {
			log.WithError(err).WithField("invitation", res.ID).
				Warn("sync: skipping invitation transition")
			continue
		}
		if changed {
			updated++
		}
	}

	expired, err := s.expireInvitations(ctx)
	if err != nil {
		return updated, err
	}
	return updated + expired, nil
}

func (s *syncService) applyServerStatus(
	ctx context.Context,
	invitation *domain.Invitation,
	res coinninja.InvitationResponse,
) (bool, error) {
	changed := false
	err := s.repoManager.InvitationRepository().UpdateInvitation(
		ctx, invitation.ID,
		func(i *domain.Invitation) (*domain.Invitation, error) {
			if res.Address != "" && i.Status == domain.InvitationStatusRequestSent {
				if ok, err := i.MarkAddressSent(res.Address); err != nil {
					return nil, err
				} else if ok {
					changed = true
					stats.InvitationsTransitioned.
						WithLabelValues(i.Status.String()).Inc()
				}
			}

			switch res.Status {
			case coinninja.InvitationStatusCompleted:
				done, err := s.acknowledgeLocally(ctx, i, res.Txid)
				if err != nil {
					return nil, err
				}
				changed = changed || done
			case coinninja.InvitationStatusCanceled:
				if i.IsActive() && i.Status != domain.InvitationStatusAddressSent {
					if ok, err := i.Cancel(); err != nil {
						return nil, err
					} else if ok {
						changed = true
						stats.InvitationsTransitioned.
							WithLabelValues(i.Status.String()).Inc()
					}
				}
			case coinninja.InvitationStatusExpired:
				if i.IsActive() {
					i.Status = domain.InvitationStatusExpired
					changed = true
					stats.InvitationsTransitioned.
						WithLabelValues(i.Status.String()).Inc()
				}
			}
			return i, nil
		},
	)
	return changed, err
}

// acknowledgeLocally completes an invitation and attaches exactly one
// transaction record for it. Completing twice with the same txid is a no-op,
// the txid uniqueness guard keeps a duplicate record from being created.
func (s *syncService) acknowledgeLocally(
	ctx context.Context, invitation *domain.Invitation, txid string,
) (bool, error) {
	if txid == "" {
		return false, ErrUnknownInvitation
	}
	if invitation.IsCompleted() {
		return false, nil
	}

	if invitation.Status == domain.InvitationStatusRequestSent {
		// Catch up the intermediate transition, the completed response
		// carries the address the counterparty supplied.
		if invitation.Address == "" {
			return false, domain.ErrInvitationNullAddress
		}
		if _, err := invitation.MarkAddressSent(invitation.Address); err != nil {
			return false, err
		}
	}

	if _, err := invitation.Complete(txid, time.Now()); err != nil {
		return false, err
	}

	txRepo := s.repoManager.TransactionRepository()
	tx, err := txRepo.GetTransaction(ctx, txid)
	if err != nil {
		return false, err
	}
	if tx == nil {
		newTx, err := domain.NewTemporaryTransaction(txid, domain.TemporaryDetails{
			CreatedAt: time.Now(),
		})
		if err != nil {
			return false, err
		}
		newTx.InvitationID = invitation.ID
		newTx.IsIncoming = invitation.Side == domain.InvitationSideReceived
		if err := txRepo.AddTransaction(ctx, newTx); err != nil &&
			err != domain.ErrTransactionAlreadyBroadcast {
			return false, err
		}
	} else if tx.InvitationID == "" {
		if err := txRepo.UpdateTransaction(
			ctx, txid,
			func(t *domain.Transaction) (*domain.Transaction, error) {
				t.InvitationID = invitation.ID
				t.IsSentToSelf = false
				return t, nil
			},
		); err != nil {
			return false, err
		}
	}

	stats.InvitationsTransitioned.
		WithLabelValues(domain.InvitationStatusCompleted.String()).Inc()
	return true, nil
}

// expireInvitations transitions the active invitations whose validity window
// passed with no further counterparty action.
func (s *syncService) expireInvitations(ctx context.Context) (int, error) {
	invitationRepo := s.repoManager.InvitationRepository()

	active, err := invitationRepo.GetActiveInvitations(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	expired := 0
	for _, invitation := range active {
		if invitation.ExpiryTime.IsZero() || now.Before(invitation.ExpiryTime) {
			continue
		}
		if err := invitationRepo.UpdateInvitation(
			ctx, invitation.ID,
			func(i *domain.Invitation) (*domain.Invitation, error) {
				if _, err := i.Expire(now); err != nil {
					return nil, err
				}
				return i, nil
			},
		); err != nil {
			log.WithError(err).WithField("invitation", invitation.ID).
				Warn("sync: skipping invitation expiry")
			continue
		}
		expired++
		stats.InvitationsTransitioned.
			WithLabelValues(domain.InvitationStatusExpired.String()).Inc()
	}
	return expired, nil
}

func invitationFromResponse(res coinninja.InvitationResponse) *domain.Invitation {
	side := domain.InvitationSideSent
	if res.Side == "received" {
		side = domain.InvitationSideReceived
	}

	invitation := domain.NewInvitation(res.ID, side, domain.Counterparty{
		PhoneNumberHash: res.PhoneNumberHash,
		TwitterHandle:   res.TwitterHandle,
	})
	if res.CreatedAt > 0 {
		invitation.CreatedTime = time.Unix(res.CreatedAt, 0)
	}
	invitation.FiatAmount = res.FiatAmount
	invitation.FiatCurrency = res.FiatCurrency

	if res.ValueSats > 0 {
		expiry := invitation.CreatedTime.Add(InvitationValidityWindow)
		invitation.MarkRequestSent(res.ValueSats, res.FeeSats, expiry)
	}
	return invitation
}
