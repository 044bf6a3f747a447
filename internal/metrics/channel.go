package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChannelStateTransitions counts channel state machine transitions.
	ChannelStateTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "state_transitions_total",
			Help:      "Total number of channel state transitions, by entered state",
		},
		[]string{"state"},
	)

	// ChannelsActive is the number of channels currently tracked by the registry.
	ChannelsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "active",
			Help:      "Number of channels currently tracked by the registry",
		},
	)

	// MessagesPublished counts successfully queued publishes, by channel.
	MessagesPublished = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "messages_published_total",
			Help:      "Total number of publish calls accepted by a channel",
		},
		[]string{"channel"},
	)

	// MessagesDelivered counts inbound messages dispatched to subscribers.
	MessagesDelivered = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "messages_delivered_total",
			Help:      "Total number of inbound messages dispatched to subscribers",
		},
		[]string{"channel"},
	)

	// PresenceSyncDuration tracks time spent in the post-attach presence sync phase.
	PresenceSyncDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "presence_sync_duration_seconds",
			Help:      "Time spent in the presence sync sub-state after Attached",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
