package domain

import "time"

// Vin is a reference to a previous output spent by a transaction.
type Vin struct {
	PreviousTxid  string
	PreviousIndex uint32
	Addresses     []string
	Value         uint64
}

// Vout is an output created by a transaction with its owning addresses.
type Vout struct {
	Index     uint32
	Addresses []string
	Value     uint64
}

// TemporaryDetails are present on a transaction only between the local
// broadcast and the first server-side confirmation of its vin/vout data.
type TemporaryDetails struct {
	CreatedAt        time.Time
	Fee              uint64
	ChangeAddress    string
	RecipientAddress string
}

// Transaction is the data structure representing a wallet transaction
// entity, identified by its txid. The IsIncoming and IsSentToSelf fields are
// cached classifications, they must be recomputed whenever the set of owned
// addresses changes.
type Transaction struct {
	Txid          string
	BlockHash     string
	BlockHeight   uint32
	Confirmations uint32
	BroadcastTime time.Time
	SortTime      time.Time
	Vins          []Vin
	Vouts         []Vout
	Temporary     *TemporaryDetails
	InvitationID  string
	IsIncoming    bool
	IsSentToSelf  bool
	Failed        bool
	FailureTime   time.Time
}

// NewTemporaryTransaction returns the transaction record created at local
// broadcast time, before the server reports any vin/vout data for it.
func NewTemporaryTransaction(
	txid string, details TemporaryDetails,
) (*Transaction, error) {
	if txid == "" {
		return nil, ErrNullTxid
	}
	if details.CreatedAt.IsZero() {
		details.CreatedAt = time.Now()
	}
	return &Transaction{
		Txid:          txid,
		BroadcastTime: details.CreatedAt,
		SortTime:      details.CreatedAt,
		Temporary:     &details,
	}, nil
}

// IsTemporary returns whether the transaction still awaits server
// confirmation of its broadcast.
func (t *Transaction) IsTemporary() bool {
	return t.Temporary != nil
}

// IsConfirmed returns whether the transaction has at least one confirmation.
func (t *Transaction) IsConfirmed() bool {
	return t.Confirmations > 0
}

// Promote applies server-reported data to the transaction and drops the
// temporary details. Promoting an already promoted transaction only refreshes
// the server-reported fields.
func (t *Transaction) Promote(
	blockHash string, blockHeight, confirmations uint32, vins []Vin, vouts []Vout,
) {
	t.BlockHash = blockHash
	t.BlockHeight = blockHeight
	t.Confirmations = confirmations
	t.Vins = vins
	t.Vouts = vouts
	t.Temporary = nil
	if t.Failed {
		// the network knows the tx after all
		t.Failed = false
		t.FailureTime = time.Time{}
	}
}

// MarkFailed flags the transaction as failed to broadcast. The record is kept
// so callers can distinguish failed from pending and confirmed.
func (t *Transaction) MarkFailed(now time.Time) {
	if t.Failed {
		return
	}
	t.Failed = true
	t.FailureTime = now
}

// VinAddresses returns the deduplicated addresses over all vins.
func (t *Transaction) VinAddresses() []string {
	return dedupAddresses(len(t.Vins), func(i int) []string {
		return t.Vins[i].Addresses
	})
}

// VoutAddresses returns the deduplicated addresses over all vouts.
func (t *Transaction) VoutAddresses() []string {
	return dedupAddresses(len(t.Vouts), func(i int) []string {
		return t.Vouts[i].Addresses
	})
}

// Reclassify recomputes the cached direction and self-sent classifications
// against the given set of owned addresses.
func (t *Transaction) Reclassify(owned AddressSet) {
	t.IsIncoming = ClassifyDirection(t.VinAddresses(), owned)
	t.IsSentToSelf = ClassifySelfSend(
		t.InvitationID != "", t.VinAddresses(), t.VoutAddresses(), owned,
	)
}

func dedupAddresses(n int, addrsAt func(int) []string) []string {
	seen := make(map[string]struct{})
	all := make([]string, 0)
	for i := 0; i < n; i++ {
		for _, addr := range addrsAt(i) {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			all = append(all, addr)
		}
	}
	return all
}
