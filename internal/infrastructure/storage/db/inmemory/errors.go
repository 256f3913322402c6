package inmemory

import "errors"

// Wallet errors
var (
	// ErrWalletNotFound ...
	ErrWalletNotFound = errors.New("wallet not found")
)

// Transaction errors
var (
	// ErrTransactionNotFound ...
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Invitation errors
var (
	// ErrInvitationNotFound ...
	ErrInvitationNotFound = errors.New("invitation not found")
)

// User errors
var (
	// ErrUserNotFound ...
	ErrUserNotFound = errors.New("user not found")
)
