package inmemory

import (
	"context"
	"sync"

	"github.com/coinninja/dropbitd/internal/core/domain"
	"github.com/coinninja/dropbitd/internal/core/ports"
)

// RepoManager is the in-memory implementation of ports.RepoManager.
// Transactions degrade to a process-wide lock.
type RepoManager struct {
	walletRepository      domain.WalletRepository
	transactionRepository domain.TransactionRepository
	invitationRepository  domain.InvitationRepository
	userRepository        domain.UserRepository

	txLocker sync.Mutex
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		walletRepository:      NewWalletRepositoryImpl(),
		transactionRepository: NewTransactionRepositoryImpl(),
		invitationRepository:  NewInvitationRepositoryImpl(),
		userRepository:        NewUserRepositoryImpl(),
	}
}

func (d *RepoManager) WalletRepository() domain.WalletRepository {
	return d.walletRepository
}

func (d *RepoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *RepoManager) InvitationRepository() domain.InvitationRepository {
	return d.invitationRepository
}

func (d *RepoManager) UserRepository() domain.UserRepository {
	return d.userRepository
}

func (d *RepoManager) Close() {}

func (d *RepoManager) RunTransaction(
	ctx context.Context,
	_ bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	d.txLocker.Lock()
	defer d.txLocker.Unlock()

	return handler(ctx)
}
