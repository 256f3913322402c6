package application

import "time"

// SyncType tells how authoritative a pass is over the local transaction set.
type SyncType int

const (
	// SyncStandard adds and updates, never deletes.
	SyncStandard SyncType = iota
	// SyncFull treats the fetched result set as canonical and deletes local
	// transactions absent from it.
	SyncFull
)

func (t SyncType) String() string {
	if t == SyncFull {
		return "full"
	}
	return "standard"
}

// SyncPolicy tells how a request behaves against the in-flight slot.
type SyncPolicy int

const (
	// PolicyAlways queues the request behind whatever is running.
	PolicyAlways SyncPolicy = iota
	// PolicyIfStale resolves immediately when the last completed pass is
	// fresh enough.
	PolicyIfStale
	// PolicySkipIfInProgress returns a busy signal instead of queueing when
	// a pass is in flight, preventing unbounded queue growth from rapid
	// triggers.
	PolicySkipIfInProgress
)

func (p SyncPolicy) String() string {
	switch p {
	case PolicyIfStale:
		return "if_stale"
	case PolicySkipIfInProgress:
		return "skip_if_in_progress"
	default:
		return "always"
	}
}

// SyncStats counts what a pass touched.
type SyncStats struct {
	TxsPersisted       int
	TxsDeleted         int
	InvitationsUpdated int
	TxsGroomed         int
	Duration           time.Duration
}

// SyncResult is the terminal outcome delivered exactly once per enqueued
// request. Skipped is set when the request resolved without running a pass
// (fresh enough for PolicyIfStale, or busy for PolicySkipIfInProgress).
type SyncResult struct {
	Type    SyncType
	Skipped bool
	Err     error
	Stats   SyncStats
}
