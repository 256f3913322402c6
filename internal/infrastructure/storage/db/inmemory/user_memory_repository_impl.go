package inmemory

import (
	"context"
	"sync"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type userInmemoryStore struct {
	user   *domain.User
	locker *sync.Mutex
}

type userRepositoryImpl struct {
	store *userInmemoryStore
}

// NewUserRepositoryImpl returns a new inmemory UserRepository implementation.
func NewUserRepositoryImpl() domain.UserRepository {
	return &userRepositoryImpl{
		store: &userInmemoryStore{
			locker: &sync.Mutex{},
		},
	}
}

func (r userRepositoryImpl) GetOrCreateUser(
	_ context.Context,
) (*domain.User, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.user == nil {
		r.store.user = domain.NewUser()
	}
	user := *r.store.user
	return &user, nil
}

func (r userRepositoryImpl) GetUser(_ context.Context) (*domain.User, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.user == nil {
		return nil, nil
	}
	user := *r.store.user
	return &user, nil
}

func (r userRepositoryImpl) UpdateUser(
	_ context.Context,
	updateFn func(u *domain.User) (*domain.User, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.user == nil {
		return ErrUserNotFound
	}

	user := *r.store.user
	updatedUser, err := updateFn(&user)
	if err != nil {
		return err
	}

	r.store.user = updatedUser
	return nil
}
