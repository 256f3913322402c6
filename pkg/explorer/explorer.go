package explorer

// Service is the representation of a public chain explorer. The grooming
// sweep is its only consumer: it asks whether a txid exists on the public
// chain before flagging a stale local broadcast as failed.
type Service interface {
	// HasTransaction returns whether the tx identified by its hash is known
	// to the public chain, mined or in the mempool.
	HasTransaction(txid string) (bool, error)
	// IsTransactionConfirmed returns whether the tx identified by its hash
	// has been included in the blockchain.
	IsTransactionConfirmed(txid string) (bool, error)
	// GetBlockHeight returns the number of blocks of the blockchain.
	GetBlockHeight() (int, error)
}
