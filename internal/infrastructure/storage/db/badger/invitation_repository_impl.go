package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type invitationRepositoryImpl struct {
	store *badgerhold.Store
}

func NewInvitationRepositoryImpl(
	store *badgerhold.Store,
) domain.InvitationRepository {
	return invitationRepositoryImpl{store: store}
}

func (i invitationRepositoryImpl) GetInvitation(
	ctx context.Context, id string,
) (*domain.Invitation, error) {
	return i.getInvitation(ctx, id)
}

func (i invitationRepositoryImpl) GetAllInvitations(
	ctx context.Context,
) ([]*domain.Invitation, error) {
	query := &badgerhold.Query{}
	return i.findInvitations(ctx, query)
}

func (i invitationRepositoryImpl) GetActiveInvitations(
	ctx context.Context,
) ([]*domain.Invitation, error) {
	query := badgerhold.Where("Status").In(
		domain.InvitationStatusUnsent,
		domain.InvitationStatusRequestSent,
		domain.InvitationStatusAddressSent,
	)
	return i.findInvitations(ctx, query)
}

func (i invitationRepositoryImpl) GetInvitationWithTxid(
	ctx context.Context, txid string,
) (*domain.Invitation, error) {
	query := badgerhold.Where("Txid").Eq(txid)
	invitations, err := i.findInvitations(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(invitations) <= 0 {
		return nil, nil
	}
	return invitations[0], nil
}

func (i invitationRepositoryImpl) AddInvitation(
	ctx context.Context, invitation *domain.Invitation,
) error {
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = i.store.TxInsert(tx, invitation.ID, invitation)
	} else {
		err = i.store.Insert(invitation.ID, invitation)
	}
	if err != nil && err != badgerhold.ErrKeyExists {
		return err
	}
	return nil
}

func (i invitationRepositoryImpl) UpdateInvitation(
	ctx context.Context,
	id string,
	updateFn func(invitation *domain.Invitation) (*domain.Invitation, error),
) error {
	currentInvitation, err := i.getInvitation(ctx, id)
	if err != nil {
		return err
	}
	if currentInvitation == nil {
		return badgerhold.ErrNotFound
	}

	updatedInvitation, err := updateFn(currentInvitation)
	if err != nil {
		return err
	}

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return i.store.TxUpdate(tx, id, *updatedInvitation)
	}
	return i.store.Update(id, *updatedInvitation)
}

func (i invitationRepositoryImpl) getInvitation(
	ctx context.Context, id string,
) (*domain.Invitation, error) {
	var invitation domain.Invitation
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = i.store.TxGet(tx, id, &invitation)
	} else {
		err = i.store.Get(id, &invitation)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invitation, nil
}

func (i invitationRepositoryImpl) findInvitations(
	ctx context.Context, query *badgerhold.Query,
) ([]*domain.Invitation, error) {
	var invitations []domain.Invitation
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = i.store.TxFind(tx, &invitations, query)
	} else {
		err = i.store.Find(&invitations, query)
	}
	if err != nil {
		return nil, err
	}

	list := make([]*domain.Invitation, 0, len(invitations))
	for idx := range invitations {
		list = append(list, &invitations[idx])
	}
	return list, nil
}
