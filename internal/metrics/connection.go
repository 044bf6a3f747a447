package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionStateTransitions counts every state machine transition,
	// labeled by the state entered.
	ConnectionStateTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "state_transitions_total",
			Help:      "Total number of connection state transitions, by entered state",
		},
		[]string{"state"},
	)

	// ConnectionState is a gauge with the current state encoded as a
	// label set to 1 (all others 0), for dashboards that want a point-in-time view.
	ConnectionState = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "state",
			Help:      "Current connection state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	// ConnectionRetries counts reconnect attempts, labeled by the state
	// the retry was armed from (disconnected, suspended).
	ConnectionRetries = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "retries_total",
			Help:      "Total number of reconnect attempts",
		},
		[]string{"from"},
	)

	// ConnectionResumes counts successful vs failed resume attempts.
	ConnectionResumes = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "resumes_total",
			Help:      "Total number of resume attempts by outcome",
		},
		[]string{"outcome"}, // resumed, fresh, failed
	)

	// ConnectDuration tracks time from Connecting to Connected.
	ConnectDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "connect_duration_seconds",
			Help:      "Time spent establishing a connection",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// InboundFramesPaced counts frames whose dispatch was delayed by the
	// inbound rate limiter to respect ConnectionDetails.max_inbound_rate.
	InboundFramesPaced = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "inbound_frames_paced_total",
			Help:      "Total number of inbound frames whose dispatch was throttled to respect max_inbound_rate",
		},
	)
)
