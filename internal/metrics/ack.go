package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AcksReceived counts acknowledged publishes.
	AcksReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ack",
			Name:      "acks_total",
			Help:      "Total number of publishes completed successfully via Ack",
		},
	)

	// NacksReceived counts failed publishes.
	NacksReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ack",
			Name:      "nacks_total",
			Help:      "Total number of publishes failed via Nack",
		},
	)

	// QueueOverflows counts tracker overflow evictions.
	QueueOverflows = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ack",
			Name:      "queue_overflows_total",
			Help:      "Total number of pending publishes failed due to tracker overflow",
		},
	)

	// PendingPublishes is the current number of unresolved tracker entries.
	PendingPublishes = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ack",
			Name:      "pending",
			Help:      "Number of publishes awaiting Ack or Nack",
		},
	)
)
