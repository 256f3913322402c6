package application

import (
	"errors"

	"github.com/coinninja/dropbitd/pkg/coinninja"
)

var (
	// ErrSyncInProgress is the busy signal returned to PolicySkipIfInProgress
	// requests while a pass is in flight or queued.
	ErrSyncInProgress = errors.New("a sync is already in progress")
	// ErrSyncQueueFull ...
	ErrSyncQueueFull = errors.New("the sync queue is full")
	// ErrServiceStopped ...
	ErrServiceStopped = errors.New("the sync service is stopped")

	// ErrWalletNotInitialized is the precondition failure for a missing
	// wallet record.
	ErrWalletNotInitialized = errors.New("wallet is not initialized")
	// ErrMissingSeedMaterial is the precondition failure for missing
	// recovery material.
	ErrMissingSeedMaterial = errors.New("wallet recovery material is missing")
	// ErrUserDeverified is the precondition failure for a user whose
	// identity markers were cleared.
	ErrUserDeverified = errors.New("local user identity was deverified")

	// ErrUnknownAddress is the integrity failure for a response address that
	// matches no known derived address.
	ErrUnknownAddress = errors.New("address matches no known derived address")
	// ErrUnknownInvitation is the integrity failure for an acknowledgment
	// that refers to no persisted invitation.
	ErrUnknownInvitation = errors.New("acknowledgment refers to an unknown invitation")
)

// IsPrecondition returns whether the error was raised before any I/O.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrWalletNotInitialized) ||
		errors.Is(err, ErrMissingSeedMaterial) ||
		errors.Is(err, ErrUserDeverified) ||
		errors.Is(err, ErrSyncInProgress)
}

func errorClass(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsPrecondition(err):
		return "precondition"
	case coinninja.IsTransient(err):
		return "transient"
	case coinninja.IsDeverification(err):
		return "auth"
	case errors.Is(err, ErrUnknownAddress), errors.Is(err, ErrUnknownInvitation):
		return "integrity"
	default:
		return "internal"
	}
}
