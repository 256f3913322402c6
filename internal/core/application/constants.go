package application

import "time"

const (
	syncQueueMaxSize     = 32
	addressBatchSize     = 25
	maxConcurrentFetches = 4

	readOnlyTx = true
)

var (
	// DefaultStalenessWindow is how recent the last completed pass must be
	// for a PolicyIfStale request to resolve without running.
	DefaultStalenessWindow = 30 * time.Second

	// PlainFailureThreshold is the age past which an unconfirmed local
	// broadcast becomes a grooming candidate.
	PlainFailureThreshold = 5 * time.Minute
	// InvitationFailureThreshold is the grooming age for invitation-linked
	// broadcasts, shorter since the counterparty is actively waiting.
	InvitationFailureThreshold = 3 * time.Minute

	// InvitationValidityWindow is how long a DropBit stays actionable before
	// it expires on a sync pass.
	InvitationValidityWindow = 48 * time.Hour
)
