package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type invitationInmemoryStore struct {
	invitations map[string]domain.Invitation
	locker      *sync.Mutex
}

type invitationRepositoryImpl struct {
	store *invitationInmemoryStore
}

// NewInvitationRepositoryImpl returns a new inmemory InvitationRepository
// implementation.
func NewInvitationRepositoryImpl() domain.InvitationRepository {
	return &invitationRepositoryImpl{
		store: &invitationInmemoryStore{
			invitations: map[string]domain.Invitation{},
			locker:      &sync.Mutex{},
		},
	}
}

func (r invitationRepositoryImpl) GetInvitation(
	_ context.Context, id string,
) (*domain.Invitation, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	invitation, ok := r.store.invitations[id]
	if !ok {
		return nil, nil
	}
	return &invitation, nil
}

func (r invitationRepositoryImpl) GetAllInvitations(
	_ context.Context,
) ([]*domain.Invitation, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.allInvitations(), nil
}

func (r invitationRepositoryImpl) GetActiveInvitations(
	_ context.Context,
) ([]*domain.Invitation, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	invitations := make([]*domain.Invitation, 0)
	for _, invitation := range r.allInvitations() {
		if !invitation.Status.IsTerminal() {
			invitations = append(invitations, invitation)
		}
	}
	return invitations, nil
}

func (r invitationRepositoryImpl) GetInvitationWithTxid(
	_ context.Context, txid string,
) (*domain.Invitation, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	for _, invitation := range r.store.invitations {
		if invitation.Txid == txid {
			invitation := invitation
			return &invitation, nil
		}
	}
	return nil, nil
}

func (r invitationRepositoryImpl) AddInvitation(
	_ context.Context, invitation *domain.Invitation,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.invitations[invitation.ID]; ok {
		return nil
	}
	r.store.invitations[invitation.ID] = *invitation
	return nil
}

func (r invitationRepositoryImpl) UpdateInvitation(
	_ context.Context,
	id string,
	updateFn func(i *domain.Invitation) (*domain.Invitation, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	currentInvitation, ok := r.store.invitations[id]
	if !ok {
		return ErrInvitationNotFound
	}

	updatedInvitation, err := updateFn(&currentInvitation)
	if err != nil {
		return err
	}

	r.store.invitations[id] = *updatedInvitation
	return nil
}

func (r invitationRepositoryImpl) allInvitations() []*domain.Invitation {
	invitations := make([]*domain.Invitation, 0, len(r.store.invitations))
	for _, invitation := range r.store.invitations {
		invitation := invitation
		invitations = append(invitations, &invitation)
	}
	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].CreatedTime.Before(invitations[j].CreatedTime)
	})
	return invitations
}
