package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync pipeline collectors. The daemon exposes them on /metrics.
var (
	SyncsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "syncs_started_total",
		Help:      "Number of sync passes started, by sync type.",
	}, []string{"type"})

	SyncsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "syncs_completed_total",
		Help:      "Number of sync passes that ran to completion.",
	})

	SyncsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "syncs_failed_total",
		Help:      "Number of sync passes ended by an error, by error class.",
	}, []string{"class"})

	SyncsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "syncs_skipped_total",
		Help:      "Number of sync requests skipped because one was in flight.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dropbit",
		Name:      "sync_queue_depth",
		Help:      "Number of sync requests waiting behind the in-flight one.",
	})

	TransactionsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "transactions_persisted_total",
		Help:      "Number of transaction upserts across all sync passes.",
	})

	InvitationsTransitioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "invitations_transitioned_total",
		Help:      "Number of invitation status transitions, by target status.",
	}, []string{"status"})

	TransactionsGroomed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropbit",
		Name:      "transactions_groomed_total",
		Help:      "Number of stale broadcasts flagged as failed.",
	})
)
