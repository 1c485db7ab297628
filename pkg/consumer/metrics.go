package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_orders_processed_total",
		Help: "Total number of orders processed to completion",
	})

	duplicatesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_duplicates_detected_total",
		Help: "Total number of deliveries skipped by the idempotency check",
	})

	ordersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_orders_rejected_total",
		Help: "Total number of malformed messages dropped without retry",
	})

	ordersRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_orders_retried_total",
		Help: "Total number of deliveries returned to the queue for redelivery",
	})

	ordersDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_orders_dead_lettered_total",
		Help: "Total number of deliveries routed to the dead-letter queue",
	})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderflow_processing_duration_seconds",
		Help:    "End-to-end processing duration per delivery",
		Buckets: prometheus.DefBuckets,
	})
)
