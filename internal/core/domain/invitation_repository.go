package domain

import "context"

// InvitationRepository is the abstraction for any kind of database intended
// to persist Invitations.
type InvitationRepository interface {
	// GetInvitation returns the invitation with the given id, or nil if not
	// found.
	GetInvitation(ctx context.Context, id string) (*Invitation, error)
	// GetAllInvitations returns all the invitations stored in the repository.
	GetAllInvitations(ctx context.Context) ([]*Invitation, error)
	// GetActiveInvitations returns the invitations in a non-terminal status.
	GetActiveInvitations(ctx context.Context) ([]*Invitation, error)
	// GetInvitationWithTxid returns the invitation linked to the given
	// transaction, or nil if none is.
	GetInvitationWithTxid(ctx context.Context, txid string) (*Invitation, error)
	// AddInvitation inserts an invitation if no record with the same id
	// exists yet.
	AddInvitation(ctx context.Context, invitation *Invitation) error
	// UpdateInvitation allows to commit multiple changes to the same
	// invitation in a transactional way.
	UpdateInvitation(
		ctx context.Context,
		id string,
		updateFn func(i *Invitation) (*Invitation, error),
	) error
}
