package coinninja

import "github.com/shopspring/decimal"

// FeeEstimates are the sats/vbyte estimates returned by the wallet check-in.
type FeeEstimates struct {
	Fast decimal.Decimal `json:"fast"`
	Med  decimal.Decimal `json:"med"`
	Slow decimal.Decimal `json:"slow"`
}

// Pricing is the BTC/fiat rate returned by the wallet check-in.
type Pricing struct {
	Last     decimal.Decimal `json:"last"`
	Currency string          `json:"currency"`
}

// CheckinResponse is the wallet check-in payload: current chain tip, fee
// estimates and fiat pricing.
type CheckinResponse struct {
	BlockHeight uint32       `json:"blockheight"`
	Fees        FeeEstimates `json:"fees"`
	Pricing     Pricing      `json:"pricing"`
}

// AddressTransactionSummary pairs a queried address with a txid that touched
// it, with the net satoshi amounts as the server computed them.
type AddressTransactionSummary struct {
	Address      string `json:"address"`
	Txid         string `json:"txid"`
	ReceivedSats uint64 `json:"vout"`
	SentSats     uint64 `json:"vin"`
	Time         int64  `json:"time"`
}

// VinResponse is a previous-output reference of a transaction detail payload.
type VinResponse struct {
	PreviousTxid  string   `json:"txid"`
	PreviousIndex uint32   `json:"vout"`
	Addresses     []string `json:"addresses"`
	Value         uint64   `json:"value"`
}

// VoutResponse is a new output of a transaction detail payload.
type VoutResponse struct {
	N         uint32   `json:"n"`
	Addresses []string `json:"addresses"`
	Value     uint64   `json:"value"`
}

// TransactionResponse is the full detail payload of a transaction.
type TransactionResponse struct {
	Txid        string         `json:"txid"`
	BlockHash   string         `json:"blockhash"`
	BlockHeight uint32         `json:"height"`
	ReceivedAt  int64          `json:"time"`
	Vins        []VinResponse  `json:"vin"`
	Vouts       []VoutResponse `json:"vout"`
}

// InvitationResponse is the server-side view of a DropBit invitation.
type InvitationResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Side            string `json:"side"`
	Address         string `json:"address"`
	Txid            string `json:"txid"`
	ValueSats       uint64 `json:"metadata_amount_btc"`
	FeeSats         uint64 `json:"metadata_amount_fee"`
	FiatAmount      int64  `json:"metadata_amount_fiat"`
	FiatCurrency    string `json:"metadata_currency_fiat"`
	PhoneNumberHash string `json:"phone_number_hash"`
	TwitterHandle   string `json:"twitter_handle"`
	CreatedAt       int64  `json:"created_at"`
}

// Invitation statuses as the server spells them.
const (
	InvitationStatusNew       = "new"
	InvitationStatusCompleted = "completed"
	InvitationStatusCanceled  = "canceled"
	InvitationStatusExpired   = "expired"
)

// AddressRequestData is the outgoing payload creating a DropBit toward a
// phone hash or twitter identity.
type AddressRequestData struct {
	PhoneNumberHash string `json:"phone_number_hash,omitempty"`
	TwitterHandle   string `json:"twitter_handle,omitempty"`
	ValueSats       uint64 `json:"metadata_amount_btc"`
	FeeSats         uint64 `json:"metadata_amount_fee"`
	FiatAmount      int64  `json:"metadata_amount_fiat"`
	FiatCurrency    string `json:"metadata_currency_fiat"`
	RequestID       string `json:"request_id"`
}

// AcknowledgementData is the outgoing payload completing a sent DropBit with
// the broadcast transaction.
type AcknowledgementData struct {
	InvitationID string `json:"id"`
	Txid         string `json:"txid"`
	RequestID    string `json:"request_id"`
}

// WalletAddressData is the outgoing payload adding server-pool addresses
// usable to satisfy incoming DropBits.
type WalletAddressData struct {
	Address        string `json:"address"`
	DerivationPath string `json:"derivation_path"`
}

// UserResponse is the server-side view of the local user/device pair.
type UserResponse struct {
	ID       string `json:"id"`
	WalletID string `json:"wallet_id"`
	Status   string `json:"status"`
}

// User statuses as the server spells them.
const (
	UserStatusPending  = "pending-verification"
	UserStatusVerified = "verified"
)
