package grovedb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "grovedb"

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"op", "status"}, // status: "ok", "error"
	)

	applyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_apply_duration_seconds",
			Help:      "Time taken to apply one batch inside a transaction",
			Buckets:   prometheus.DefBuckets,
		},
	)

	commitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "commit_duration_seconds",
			Help:      "Time taken to commit a transaction",
			Buckets:   prometheus.DefBuckets,
		},
	)

	proveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "proof_generation_duration_seconds",
			Help:      "Time taken to generate a layered proof",
			Buckets:   prometheus.DefBuckets,
		},
	)

	batchOps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_ops",
			Help:      "Number of operations per applied batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	operationCost = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_cost_total",
			Help:      "Weighted cost total per operation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 16),
		},
		[]string{"op"},
	)
)

func recordOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(op, status).Inc()
}
