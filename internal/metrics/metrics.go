// Package metrics provides Prometheus metrics for the write queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EnqueuedTotal counts payloads accepted by EnqueueBatch.
	EnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salestrack",
			Subsystem: "queue",
			Name:      "enqueued_total",
			Help:      "Total number of payloads accepted into the write queue",
		},
	)

	// DeliveriesTotal counts delivery attempts by outcome.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salestrack",
			Subsystem: "queue",
			Name:      "deliveries_total",
			Help:      "Total number of delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	// DeliveryDuration tracks how long a single delivery attempt takes.
	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "salestrack",
			Subsystem: "queue",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of delivery attempts in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// ItemsByStatus tracks the current queue depth per status.
	ItemsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "salestrack",
			Subsystem: "queue",
			Name:      "items",
			Help:      "Current number of queue items by status",
		},
		[]string{"status"},
	)

	// PermanentFailuresTotal counts items that exhausted their attempts.
	PermanentFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salestrack",
			Subsystem: "queue",
			Name:      "permanent_failures_total",
			Help:      "Total number of items marked failed after exhausting attempts",
		},
	)
)

// RecordDelivery records a completed delivery attempt.
func RecordDelivery(outcome string, seconds float64) {
	DeliveriesTotal.WithLabelValues(outcome).Inc()
	DeliveryDuration.Observe(seconds)
}
