package ports

import (
	"context"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

// RepoManager gives access to all the repositories of the daemon and owns
// the lifecycle of database transactions. Every repository write must run
// inside a transaction opened here, repositories never open their own.
type RepoManager interface {
	WalletRepository() domain.WalletRepository
	TransactionRepository() domain.TransactionRepository
	InvitationRepository() domain.InvitationRepository
	UserRepository() domain.UserRepository

	Close()

	// RunTransaction runs the handler inside a single database transaction
	// carried by the context. The transaction is committed if the handler
	// returns no error and discarded otherwise.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)
}
