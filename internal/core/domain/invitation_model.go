package domain

import "time"

// InvitationStatus represents the different statuses a DropBit invitation
// can assume.
type InvitationStatus int

const (
	// InvitationStatusUnsent is the status of a freshly reserved invitation
	// whose address request was not submitted yet.
	InvitationStatusUnsent InvitationStatus = iota
	// InvitationStatusRequestSent means the address request reached the
	// counterparty-resolution service.
	InvitationStatusRequestSent
	// InvitationStatusAddressSent means the receiver supplied an address and
	// the sender side can build and broadcast the transaction.
	InvitationStatusAddressSent
	// InvitationStatusCompleted is terminal, the invitation was acknowledged
	// with a broadcast transaction.
	InvitationStatusCompleted
	// InvitationStatusCanceled is terminal.
	InvitationStatusCanceled
	// InvitationStatusExpired is terminal.
	InvitationStatusExpired
)

func (s InvitationStatus) String() string {
	switch s {
	case InvitationStatusUnsent:
		return "unsent"
	case InvitationStatusRequestSent:
		return "request_sent"
	case InvitationStatusAddressSent:
		return "address_sent"
	case InvitationStatusCompleted:
		return "completed"
	case InvitationStatusCanceled:
		return "canceled"
	case InvitationStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal returns whether no further transition is legal from the status.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationStatusCompleted ||
		s == InvitationStatusCanceled ||
		s == InvitationStatusExpired
}

// InvitationSide tells whether the local wallet sent or received the
// invitation.
type InvitationSide int

const (
	// InvitationSideSent ...
	InvitationSideSent InvitationSide = iota
	// InvitationSideReceived ...
	InvitationSideReceived
)

func (s InvitationSide) String() string {
	if s == InvitationSideReceived {
		return "received"
	}
	return "sent"
}

// Counterparty identifies the other side of an invitation before an address
// exchange took place, either by phone-number hash or by twitter identity.
type Counterparty struct {
	PhoneNumberHash string
	TwitterHandle   string
}

// Invitation is the data structure representing a DropBit entity, identified
// by its server-issued id.
type Invitation struct {
	ID            string
	Side          InvitationSide
	Status        InvitationStatus
	Counterparty  Counterparty
	Address       string
	Txid          string
	ValueSats     uint64
	FeeSats       uint64
	FiatAmount    int64
	FiatCurrency  string
	CreatedTime   time.Time
	ExpiryTime    time.Time
	CompletedTime time.Time
}

// NewInvitation returns an invitation in Unsent status for the given
// counterparty.
func NewInvitation(
	id string, side InvitationSide, counterparty Counterparty,
) *Invitation {
	return &Invitation{
		ID:           id,
		Side:         side,
		Status:       InvitationStatusUnsent,
		Counterparty: counterparty,
		CreatedTime:  time.Now(),
	}
}
