package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrorsTotal counts classified failures by category and severity.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_errors_total",
			Help: "Total number of classified failures",
		},
		[]string{"category", "severity"},
	)

	// ClassifyDuration tracks classification latency.
	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remedy_classify_duration_seconds",
			Help:    "Classification latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	// RecoveriesTotal counts plan executions by outcome and final action.
	RecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_recoveries_total",
			Help: "Total number of recovery plan executions",
		},
		[]string{"outcome", "action"},
	)

	// RecoveryAttempts tracks attempts spent per plan execution.
	RecoveryAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remedy_recovery_attempts",
			Help:    "Attempts spent per recovery plan execution",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 12, 20},
		},
	)

	// BreakerTransitions counts circuit breaker state transitions.
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	// SinkDropped counts records dropped by the sink under backpressure.
	SinkDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_sink_dropped_total",
			Help: "Total number of records dropped by the logging sink",
		},
	)

	// SinkQueueDepth is the current depth of the sink buffer.
	SinkQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remedy_sink_queue_depth",
			Help: "Current depth of the logging sink buffer",
		},
	)

	// SinkBatchesWritten counts batches flushed by the sink worker.
	SinkBatchesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_sink_batches_written_total",
			Help: "Total number of batches flushed by the sink worker",
		},
	)
)
