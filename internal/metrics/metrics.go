package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugp_generations_total",
			Help: "Content generations by provider and outcome kind",
		},
		[]string{"provider", "outcome"}, // outcome: done or an error kind
	)

	GenerationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ugp_generation_duration_seconds",
			Help:    "Provider call duration for content generation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"provider"},
	)

	BatchItemsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ugp_batch_items_in_flight",
			Help: "Batch items currently dispatched to a worker",
		},
	)

	ExternalJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugp_external_jobs_total",
			Help: "External jobs by provider and terminal state",
		},
		[]string{"provider", "state"},
	)

	ExternalJobPolls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ugp_external_job_polls",
			Help:    "Number of polls performed before an external job settled",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugp_ledger_operations_total",
			Help: "Credit ledger operations by direction and result",
		},
		[]string{"op", "result"}, // op: debit, credit; result: ok, exhausted, error
	)

	PriceSuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugp_price_suggestions_total",
			Help: "Price suggestions produced by source",
		},
		[]string{"source"},
	)

	AutoApproveRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugp_auto_approve_runs_total",
			Help: "Auto-approve batch runs by result",
		},
		[]string{"result"},
	)

	AutoApprovedProductsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ugp_auto_approved_products_total",
			Help: "Products whose price was applied by the auto-approve job",
		},
	)
)
