package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	Transfers        *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram

	// Idempotency metrics
	IdempotencyOutcomes     *prometheus.CounterVec
	IdempotencyFailureMarks *prometheus.CounterVec
	IdempotencyReplayCache  *prometheus.CounterVec
	IdempotencyPurged       prometheus.Counter

	// Account metrics
	AccountsOpened prometheus.Counter

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_transfers_total",
				Help: "Transfers by outcome",
			},
			[]string{"outcome"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_transfer_amount_minor_units",
			Help:    "Committed transfer amounts in minor units",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000, 100000000},
		}),

		IdempotencyOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_idempotency_outcomes_total",
				Help: "Idempotency attempt classifications",
			},
			[]string{"outcome"},
		),
		IdempotencyFailureMarks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_idempotency_failure_marks_total",
				Help: "Best-effort writes marking idempotency records failed",
			},
			[]string{"result"},
		),
		IdempotencyReplayCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_idempotency_replay_cache_total",
				Help: "Replay cache lookups by result",
			},
			[]string{"result"},
		),
		IdempotencyPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_idempotency_purged_total",
			Help: "Expired idempotency records removed",
		}),

		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),

		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_outbox_published_total",
				Help: "Outbox events relayed by result",
			},
			[]string{"result"},
		),
	}
}
