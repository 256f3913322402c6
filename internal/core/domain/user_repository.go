package domain

import "context"

// UserRepository is the abstraction for any kind of database intended to
// persist the singleton User verification state.
type UserRepository interface {
	// GetOrCreateUser returns the user, creating a pending record if none
	// exists yet.
	GetOrCreateUser(ctx context.Context) (*User, error)
	// GetUser returns the user, or nil if none was created yet.
	GetUser(ctx context.Context) (*User, error)
	// UpdateUser allows to commit multiple changes to the user in a
	// transactional way.
	UpdateUser(
		ctx context.Context,
		updateFn func(u *User) (*User, error),
	) error
}
