package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttributionsTotal counts persisted attribution outcomes by
	// confidence level and method.
	AttributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_conversions_total",
		Help: "Verified conversions produced, by confidence level and attribution method.",
	}, []string{"confidence_level", "attribution_method"})

	// AttributionDuration observes end-to-end single-transaction
	// attribution latency.
	AttributionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attribution_duration_seconds",
		Help:    "Time spent attributing a single transaction.",
		Buckets: prometheus.DefBuckets,
	})

	// BatchTransactionsTotal counts transactions processed by the batch
	// driver by terminal result.
	BatchTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_batch_transactions_total",
		Help: "Batch-processed transactions by terminal result.",
	}, []string{"result"})

	// BatchJobsTotal counts queued batch jobs by outcome.
	BatchJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_batch_jobs_total",
		Help: "Queued batch jobs by outcome.",
	}, []string{"outcome"})
)
