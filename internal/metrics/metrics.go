package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BridgesCreated counts accepted bridge requests
	BridgesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_transactions_created_total",
			Help: "Total number of bridge transactions created",
		},
	)

	// QuotesRequested counts quote requests by result
	QuotesRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_quotes_requested_total",
			Help: "Total number of quote requests",
		},
		[]string{"result"},
	)

	// DepositsObserved counts deposits detected on the source chain
	DepositsObserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_deposits_observed_total",
			Help: "Total number of deposits observed on the source chain",
		},
	)

	// SettlementOutcomes counts terminal settlement outcomes
	SettlementOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_settlement_outcomes_total",
			Help: "Total number of terminal settlement outcomes",
		},
		[]string{"outcome"},
	)

	// ActiveBridges tracks number of non-terminal transactions by status
	ActiveBridges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_active_transactions",
			Help: "Number of non-terminal bridge transactions by status",
		},
		[]string{"status"},
	)

	// ReconcileBudgetExhausted counts transactions whose reconcile budget ran out
	ReconcileBudgetExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_reconcile_budget_exhausted_total",
			Help: "Total number of transactions that exhausted the reconcile poll budget",
		},
	)

	// ExternalCallErrors counts failed calls to external dependencies
	ExternalCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_external_call_errors_total",
			Help: "Total number of failed calls to external dependencies",
		},
		[]string{"dependency"},
	)

	// SettlementPollDuration tracks settlement status poll latency
	SettlementPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_settlement_poll_duration_seconds",
			Help:    "Settlement status poll duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
