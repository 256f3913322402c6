package domain

const (
	// ReceiveChain is the external chain of a BIP44-style derivation scheme.
	ReceiveChain = 0
	// ChangeChain is the internal chain of a BIP44-style derivation scheme.
	ChangeChain = 1

	LegacyPurpose = 44
	SegwitPurpose = 84

	MainnetCoinType = 0
	TestnetCoinType = 1

	DefaultAccount = 0

	// UnusedIndex is the sentinel returned by the index getters when a chain
	// has no confirmed on-chain usage yet.
	UnusedIndex = -1
)
