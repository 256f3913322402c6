package domain

import "time"

// MarkRequestSent brings an Unsent invitation to RequestSent after the
// address request was submitted to the counterparty-resolution service. It
// requires the locally reserved amount and fee and sets the validity window.
func (i *Invitation) MarkRequestSent(
	valueSats, feeSats uint64, expiryTime time.Time,
) (bool, error) {
	if i.Status == InvitationStatusRequestSent {
		return true, nil
	}
	if i.Status != InvitationStatusUnsent {
		return false, ErrInvitationMustBeUnsent
	}
	if valueSats <= 0 {
		return false, ErrInvitationNullAmount
	}
	if expiryTime.IsZero() {
		return false, ErrInvitationNullExpiryTime
	}

	i.ValueSats = valueSats
	i.FeeSats = feeSats
	i.ExpiryTime = expiryTime
	i.Status = InvitationStatusRequestSent
	return true, nil
}

// MarkAddressSent brings a RequestSent invitation to AddressSent once the
// receiver supplied a receiving address. On the sender side this unblocks
// building and broadcasting the actual transaction.
func (i *Invitation) MarkAddressSent(address string) (bool, error) {
	if i.Status == InvitationStatusAddressSent {
		return true, nil
	}
	if i.Status != InvitationStatusRequestSent {
		return false, ErrInvitationMustBeRequestSent
	}
	if address == "" {
		return false, ErrInvitationNullAddress
	}

	i.Address = address
	i.Status = InvitationStatusAddressSent
	return true, nil
}

// Complete brings an AddressSent invitation to the terminal Completed status,
// attaching the txid of the broadcast transaction. Completing an already
// completed invitation is a no-op so acknowledgments stay idempotent.
func (i *Invitation) Complete(txid string, now time.Time) (bool, error) {
	if i.Status == InvitationStatusCompleted {
		return true, nil
	}
	if i.Status != InvitationStatusAddressSent {
		return false, ErrInvitationMustBeAddressSent
	}
	if txid == "" {
		return false, ErrInvitationNullTxid
	}

	i.Txid = txid
	i.CompletedTime = now
	i.Status = InvitationStatusCompleted
	return true, nil
}

// Cancel brings the invitation to the terminal Canceled status. Canceling is
// only legal before the counterparty supplied an address.
func (i *Invitation) Cancel() (bool, error) {
	if i.Status == InvitationStatusCanceled {
		return true, nil
	}
	if i.Status.IsTerminal() {
		return false, ErrInvitationTerminal
	}
	if i.Status == InvitationStatusAddressSent {
		return false, ErrInvitationNotCancelable
	}

	i.Status = InvitationStatusCanceled
	return true, nil
}

// Expire brings the invitation to the terminal Expired status once its
// validity window passed without further counterparty action. Only
// RequestSent and AddressSent invitations can expire.
func (i *Invitation) Expire(now time.Time) (bool, error) {
	if i.Status == InvitationStatusExpired {
		return true, nil
	}
	if i.Status.IsTerminal() {
		return false, ErrInvitationTerminal
	}
	if i.Status != InvitationStatusRequestSent &&
		i.Status != InvitationStatusAddressSent {
		return false, ErrInvitationMustBeRequestSent
	}
	if i.ExpiryTime.IsZero() {
		return false, ErrInvitationNullExpiryTime
	}
	if now.Before(i.ExpiryTime) {
		return false, ErrInvitationExpiryNotReached
	}

	i.Status = InvitationStatusExpired
	return true, nil
}

// IsCompleted returns whether the invitation is in Completed status.
func (i *Invitation) IsCompleted() bool {
	return i.Status == InvitationStatusCompleted
}

// IsActive returns whether the invitation still awaits a transition.
func (i *Invitation) IsActive() bool {
	return !i.Status.IsTerminal()
}
