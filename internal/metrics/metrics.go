// Package metrics holds the Prometheus collectors shared by the agent and
// panel endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inspector"

var (
	// MessagesSent counts encoded messages handed to the transport.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "messages_sent_total",
		Help:      "Messages sent by topic and side.",
	}, []string{"side", "topic"})

	// MessagesReceived counts decoded inbound messages that reached dispatch.
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "messages_received_total",
		Help:      "Messages received by topic and side.",
	}, []string{"side", "topic"})

	// MessagesDropped counts inbound messages discarded before a handler ran.
	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "messages_dropped_total",
		Help:      "Inbound messages dropped by reason (malformed, direction, not_ready, closed, unhandled).",
	}, []string{"side", "reason"})

	// HandlerDuration tracks how long topic handlers run.
	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "handler_duration_seconds",
		Help:      "Handler run time in seconds by topic.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})

	// Sessions counts handshakes observed by side.
	Sessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "sessions_total",
		Help:      "Sessions opened by handshake, by side.",
	}, []string{"side"})

	// SnapshotDuration tracks full tree walks.
	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tree",
		Name:      "snapshot_duration_seconds",
		Help:      "Component tree snapshot duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	// SnapshotNodes reports the size of the latest snapshot.
	SnapshotNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tree",
		Name:      "snapshot_nodes",
		Help:      "Number of elements in the latest snapshot.",
	})

	// ProfilerFrames counts frames by outcome (emitted, flushed, dropped, discarded).
	ProfilerFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "profiler",
		Name:      "frames_total",
		Help:      "Profiler frames by outcome.",
	}, []string{"outcome"})

	// TransportConnections tracks open websocket connections.
	TransportConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "transport",
		Name:      "connections",
		Help:      "Open websocket connections.",
	})
)
