package domain

import "context"

// TransactionRepository is the abstraction for any kind of database intended
// to persist Transactions. All writes happen inside the caller's transaction
// boundary, implementations never open their own.
type TransactionRepository interface {
	// GetTransaction returns the transaction with the given txid, or nil if
	// not found.
	GetTransaction(ctx context.Context, txid string) (*Transaction, error)
	// GetAllTransactions returns all the transactions stored in the
	// repository.
	GetAllTransactions(ctx context.Context) ([]*Transaction, error)
	// GetUnconfirmedTransactions returns the transactions with zero
	// confirmations that were not flagged as failed.
	GetUnconfirmedTransactions(ctx context.Context) ([]*Transaction, error)
	// AddTransaction inserts a transaction. Inserting a txid that already
	// exists returns ErrTransactionAlreadyBroadcast.
	AddTransaction(ctx context.Context, tx *Transaction) error
	// UpsertTransaction inserts the transaction or overwrites the existing
	// record with the same txid.
	UpsertTransaction(ctx context.Context, tx *Transaction) error
	// UpdateTransaction allows to commit multiple changes to the same
	// transaction in a transactional way.
	UpdateTransaction(
		ctx context.Context,
		txid string,
		updateFn func(tx *Transaction) (*Transaction, error),
	) error
	// DeleteTransaction removes the transaction with the given txid. Only a
	// full-sync reconciliation is allowed to call this.
	DeleteTransaction(ctx context.Context, txid string) error
}
