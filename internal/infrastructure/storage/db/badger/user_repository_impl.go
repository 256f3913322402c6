package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"

	"github.com/coinninja/dropbitd/internal/core/domain"
)

type userRepositoryImpl struct {
	store *badgerhold.Store
}

func NewUserRepositoryImpl(store *badgerhold.Store) domain.UserRepository {
	return userRepositoryImpl{store: store}
}

func (u userRepositoryImpl) GetOrCreateUser(
	ctx context.Context,
) (*domain.User, error) {
	user, err := u.getUser(ctx)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = domain.NewUser()
	if err := u.insertUser(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u userRepositoryImpl) GetUser(ctx context.Context) (*domain.User, error) {
	return u.getUser(ctx)
}

func (u userRepositoryImpl) UpdateUser(
	ctx context.Context,
	updateFn func(usr *domain.User) (*domain.User, error),
) error {
	currentUser, err := u.getUser(ctx)
	if err != nil {
		return err
	}
	if currentUser == nil {
		return badgerhold.ErrNotFound
	}

	updatedUser, err := updateFn(currentUser)
	if err != nil {
		return err
	}

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return u.store.TxUpdate(tx, domain.UserKey, *updatedUser)
	}
	return u.store.Update(domain.UserKey, *updatedUser)
}

func (u userRepositoryImpl) getUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = u.store.TxGet(tx, domain.UserKey, &user)
	} else {
		err = u.store.Get(domain.UserKey, &user)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (u userRepositoryImpl) insertUser(
	ctx context.Context, user domain.User,
) error {
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = u.store.TxInsert(tx, domain.UserKey, &user)
	} else {
		err = u.store.Insert(domain.UserKey, &user)
	}
	if err != nil && err != badgerhold.ErrKeyExists {
		return err
	}
	return nil
}
