package domain

import "errors"

var (
	// ErrInvitationTerminal is thrown when trying to transition an invitation
	// that already reached a terminal status.
	ErrInvitationTerminal = errors.New("invitation is in a terminal status")
	// ErrInvitationMustBeUnsent ...
	ErrInvitationMustBeUnsent = errors.New("invitation request was already submitted")
	// ErrInvitationMustBeRequestSent ...
	ErrInvitationMustBeRequestSent = errors.New("invitation must be in request-sent status")
	// ErrInvitationMustBeAddressSent ...
	ErrInvitationMustBeAddressSent = errors.New("invitation must be in address-sent status")
	// ErrInvitationNotCancelable is thrown when canceling after the receiver
	// already supplied an address.
	ErrInvitationNotCancelable = errors.New("invitation can no longer be canceled")
	// ErrInvitationNullAmount ...
	ErrInvitationNullAmount = errors.New("invitation amount must not be null")
	// ErrInvitationNullAddress ...
	ErrInvitationNullAddress = errors.New("invitation address must not be null")
	// ErrInvitationNullTxid ...
	ErrInvitationNullTxid = errors.New("invitation txid must not be null")
	// ErrInvitationNullExpiryTime ...
	ErrInvitationNullExpiryTime = errors.New("invitation expiry time must be set")
	// ErrInvitationExpiryNotReached ...
	ErrInvitationExpiryNotReached = errors.New("invitation expiry time not reached yet")

	// ErrNullTxid ...
	ErrNullTxid = errors.New("transaction id must not be null")
	// ErrTransactionAlreadyBroadcast is thrown when persisting a temporary
	// transaction for a txid that already exists.
	ErrTransactionAlreadyBroadcast = errors.New("a transaction with the same id was already broadcast")

	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrInvalidChain ...
	ErrInvalidChain = errors.New("derivation chain must be either receive or change")
)
