package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/internal/core/ports"
	"github.com/coinninja/dropbitd/pkg/coinninja"
	"github.com/coinninja/dropbitd/pkg/keyutil"
)

const serverPoolBatchSize = 5

// AddressInfo pairs a derived address with its derivation path.
type AddressInfo struct {
	Address string
	Path    domain.DerivationPath
}

// WalletService covers the wallet-mutating flows that run outside a sync
// pass: address generation, broadcast registration and the DropBit send-side
// operations. Everything it persists goes through the same repositories the
// sync pipeline serializes against.
type WalletService interface {
	// NewReceiveAddress derives, persists and returns the next receive
	// address, recording its index in the gap set until confirmed used.
	NewReceiveAddress(ctx context.Context) (*AddressInfo, error)
	// NewChangeAddress derives, persists and returns the next change address.
	NewChangeAddress(ctx context.Context) (*AddressInfo, error)
	// RegisterBroadcast persists the temporary transaction record at local
	// broadcast time. Registering the same txid twice fails.
	RegisterBroadcast(
		ctx context.Context, txid string, details domain.TemporaryDetails,
	) error
	// CreateInvitation opens a DropBit toward a counterparty and persists it
	// in RequestSent status.
	CreateInvitation(
		ctx context.Context,
		counterparty domain.Counterparty,
		valueSats, feeSats uint64,
		fiatAmount int64, fiatCurrency string,
	) (*domain.Invitation, error)
	// CancelInvitation cancels a sent DropBit before the counterparty
	// supplied an address, locally and server-side.
	CancelInvitation(ctx context.Context, id string) error
	// AcknowledgeInvitation completes a sent DropBit with its broadcast
	// txid. Acknowledging twice with the same id is a no-op.
	AcknowledgeInvitation(ctx context.Context, id, txid string) error
	// ReplenishServerPool derives fresh receive addresses and uploads them
	// so the server can satisfy incoming DropBits ahead of a local sync.
	ReplenishServerPool(ctx context.Context) error
}

type walletService struct {
	repoManager ports.RepoManager
	apiClient   coinninja.Service
	deriver     *keyutil.Deriver
	coin        domain.CoinScheme
}

// NewWalletService returns a WalletService backed by the given repositories,
// API client and address deriver.
func NewWalletService(
	repoManager ports.RepoManager,
	apiClient coinninja.Service,
	deriver *keyutil.Deriver,
	coin domain.CoinScheme,
) WalletService {
	return &walletService{
		repoManager: repoManager,
		apiClient:   apiClient,
		deriver:     deriver,
		coin:        coin,
	}
}

// handleAPIError maps a server-side identity disavowal to the local
// deverification, the same way the sync pipeline does.
func (w *walletService) handleAPIError(ctx context.Context, err error) error {
	if coinninja.IsDeverification(err) {
		deverifyLocalIdentity(ctx, w.repoManager)
	}
	return err
}

func (w *walletService) NewReceiveAddress(ctx context.Context) (*AddressInfo, error) {
	return w.newAddress(ctx, domain.ReceiveChain, false)
}

func (w *walletService) NewChangeAddress(ctx context.Context) (*AddressInfo, error) {
	return w.newAddress(ctx, domain.ChangeChain, false)
}

func (w *walletService) newAddress(
	ctx context.Context, chain uint32, serverPool bool,
) (*AddressInfo, error) {
	var info *AddressInfo
	if _, err := w.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			walletRepo := w.repoManager.WalletRepository()

			wallet, err := walletRepo.GetWallet(ctx)
			if err != nil {
				return nil, err
			}
			if wallet.IsZero() {
				return nil, ErrWalletNotInitialized
			}

			var index uint32
			if chain == domain.ReceiveChain {
				index = wallet.NextReceiveIndex()
			} else {
				index = wallet.NextChangeIndex()
			}
			// Pool addresses advance neither the gap set nor the last used
			// index, so the floor is whatever is already stored.
			stored, err := walletRepo.GetAddressesForChain(ctx, chain)
			if err != nil {
				return nil, err
			}
			for _, a := range stored {
				if a.Path.BelongsTo(w.coin) && a.Path.Index >= index {
					index = a.Path.Index + 1
				}
			}

			addr, err := w.deriver.Derive(chain, index)
			if err != nil {
				return nil, err
			}

			path := domain.DerivationPath{
				Purpose:  w.coin.Purpose,
				CoinType: w.coin.CoinType,
				Account:  w.coin.Account,
				Chain:    chain,
				Index:    index,
			}
			address := domain.NewAddress(addr, path)
			if serverPool {
				address = domain.NewServerPoolAddress(addr, path)
			}
			if err := walletRepo.AddAddresses(
				ctx, []domain.Address{address},
			); err != nil {
				return nil, err
			}

			if chain == domain.ReceiveChain && !serverPool {
				if err := walletRepo.UpdateWallet(
					ctx, func(wlt *domain.Wallet) (*domain.Wallet, error) {
						wlt.AddGap(index)
						return wlt, nil
					},
				); err != nil {
					return nil, err
				}
			}

			info = &AddressInfo{Address: addr, Path: path}
			return nil, nil
		},
	); err != nil {
		return nil, err
	}
	return info, nil
}

func (w *walletService) RegisterBroadcast(
	ctx context.Context, txid string, details domain.TemporaryDetails,
) error {
	tx, err := domain.NewTemporaryTransaction(txid, details)
	if err != nil {
		return err
	}

	_, err = w.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return nil, w.repoManager.TransactionRepository().AddTransaction(ctx, tx)
		},
	)
	return err
}

func (w *walletService) CreateInvitation(
	ctx context.Context,
	counterparty domain.Counterparty,
	valueSats, feeSats uint64,
	fiatAmount int64, fiatCurrency string,
) (*domain.Invitation, error) {
	res, err := w.apiClient.CreateAddressRequest(coinninja.AddressRequestData{
		PhoneNumberHash: counterparty.PhoneNumberHash,
		TwitterHandle:   counterparty.TwitterHandle,
		ValueSats:       valueSats,
		FeeSats:         feeSats,
		FiatAmount:      fiatAmount,
		FiatCurrency:    fiatCurrency,
		RequestID:       uuid.New().String(),
	})
	if err != nil {
		return nil, w.handleAPIError(ctx, err)
	}

	invitation := domain.NewInvitation(
		res.ID, domain.InvitationSideSent, counterparty,
	)
	invitation.FiatAmount = fiatAmount
	invitation.FiatCurrency = fiatCurrency
	if _, err := invitation.MarkRequestSent(
		valueSats, feeSats, time.Now().Add(InvitationValidityWindow),
	); err != nil {
		return nil, err
	}

	if _, err := w.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return nil, w.repoManager.InvitationRepository().
				AddInvitation(ctx, invitation)
		},
	); err != nil {
		return nil, err
	}
	return invitation, nil
}

func (w *walletService) CancelInvitation(ctx context.Context, id string) error {
	// Validate the transition before touching the server so an illegal
	// cancel is rejected without a round trip.
	iInvitation, err := w.repoManager.RunTransaction(
		ctx, readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return w.repoManager.InvitationRepository().GetInvitation(ctx, id)
		},
	)
	if err != nil {
		return err
	}
	invitation := iInvitation.(*domain.Invitation)
	if invitation == nil {
		return ErrUnknownInvitation
	}
	if invitation.Status == domain.InvitationStatusAddressSent {
		return domain.ErrInvitationNotCancelable
	}

	if _, err := w.apiClient.CancelInvitation(id); err != nil {
		return w.handleAPIError(ctx, err)
	}

	_, err = w.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			return nil, w.repoManager.InvitationRepository().UpdateInvitation(
				ctx, id,
				func(i *domain.Invitation) (*domain.Invitation, error) {
					if _, err := i.Cancel(); err != nil {
						return nil, err
					}
					return i, nil
				},
			)
		},
	)
	return err
}

// AcknowledgeInvitation acknowledges server-side first, then persists the
// completion and the transaction attachment locally in one transaction. If
// local persistence fails the server state is already terminal and the next
// sync pass re-fetches and converges, the operation is never assumed
// successful on partial application.
func (w *walletService) AcknowledgeInvitation(
	ctx context.Context, id, txid string,
) error {
	if txid == "" {
		return domain.ErrNullTxid
	}

	res, err := w.apiClient.AcknowledgeInvitation(coinninja.AcknowledgementData{
		InvitationID: id,
		Txid:         txid,
		RequestID:    uuid.New().String(),
	})
	if err != nil {
		return w.handleAPIError(ctx, err)
	}

	_, err = w.repoManager.RunTransaction(
		ctx, !readOnlyTx,
		func(ctx context.Context) (interface{}, error) {
			invitationRepo := w.repoManager.InvitationRepository()

			invitation, err := invitationRepo.GetInvitation(ctx, id)
			if err != nil {
				return nil, err
			}
			if invitation == nil {
				return nil, ErrUnknownInvitation
			}
			if invitation.IsCompleted() {
				return nil, nil
			}

			if err := invitationRepo.UpdateInvitation(
				ctx, id,
				func(i *domain.Invitation) (*domain.Invitation, error) {
					if i.Status == domain.InvitationStatusRequestSent &&
						res.Address != "" {
						if _, err := i.MarkAddressSent(res.Address); err != nil {
							return nil, err
						}
					}
					if _, err := i.Complete(txid, time.Now()); err != nil {
						return nil, err
					}
					return i, nil
				},
			); err != nil {
				return nil, err
			}

			txRepo := w.repoManager.TransactionRepository()
			tx, err := txRepo.GetTransaction(ctx, txid)
			if err != nil {
				return nil, err
			}
			if tx == nil {
				newTx, err := domain.NewTemporaryTransaction(
					txid, domain.TemporaryDetails{CreatedAt: time.Now()},
				)
				if err != nil {
					return nil, err
				}
				newTx.InvitationID = id
				return nil, txRepo.AddTransaction(ctx, newTx)
			}
			return nil, txRepo.UpdateTransaction(
				ctx, txid,
				func(t *domain.Transaction) (*domain.Transaction, error) {
					t.InvitationID = id
					t.IsSentToSelf = false
					return t, nil
				},
			)
		},
	)
	if err != nil {
		log.WithError(err).WithField("invitation", id).
			Warn("wallet: acknowledgment persisted server-side only, next sync reconciles")
	}
	return err
}

func (w *walletService) ReplenishServerPool(ctx context.Context) error {
	data := make([]coinninja.WalletAddressData, 0, serverPoolBatchSize)
	for i := 0; i < serverPoolBatchSize; i++ {
		info, err := w.newAddress(ctx, domain.ReceiveChain, true)
		if err != nil {
			return err
		}
		data = append(data, coinninja.WalletAddressData{
			Address:        info.Address,
			DerivationPath: info.Path.String(),
		})
	}
	if err := w.apiClient.AddWalletAddresses(data); err != nil {
		return w.handleAPIError(ctx, err)
	}
	return nil
}
