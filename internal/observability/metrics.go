package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	realtimeConnectionsTotal prometheus.Counter
	realtimeConnectionsLive  prometheus.Gauge
	messagesPostedTotal      *prometheus.CounterVec
	notificationsSentTotal   *prometheus.CounterVec
	realtimeAcksTotal        *prometheus.CounterVec
	checkInsTotal            prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		realtimeConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_connections_total",
			Help: "Total number of websocket connections accepted.",
		})

		realtimeConnectionsLive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections_live",
			Help: "Websocket connections currently open.",
		})

		messagesPostedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_posted_total",
			Help: "Total number of messages persisted and broadcast, by body type.",
		}, []string{"type"})

		notificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of push notification dispatch attempts.",
		}, []string{"outcome"})

		realtimeAcksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_acks_total",
			Help: "Total realtime event acknowledgements, by event and outcome.",
		}, []string{"event", "outcome"})

		checkInsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_check_ins_total",
			Help: "Total successful event check-ins.",
		})

		prometheus.MustRegister(
			realtimeConnectionsTotal,
			realtimeConnectionsLive,
			messagesPostedTotal,
			notificationsSentTotal,
			realtimeAcksTotal,
			checkInsTotal,
		)
	})
}

// RealtimeConnections exposes the counter for accepted websocket connections.
func RealtimeConnections() prometheus.Counter {
	RegisterMetrics()
	return realtimeConnectionsTotal
}

// RealtimeConnectionsLive exposes the gauge of open websocket connections.
func RealtimeConnectionsLive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeConnectionsLive
}

// MessagesPosted exposes the counter for posted messages.
func MessagesPosted() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesPostedTotal
}

// NotificationsSent exposes the counter for notification dispatch attempts.
func NotificationsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSentTotal
}

// RealtimeAcks exposes the counter for realtime acknowledgements.
func RealtimeAcks() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeAcksTotal
}

// CheckIns exposes the counter for event check-ins.
func CheckIns() prometheus.Counter {
	RegisterMetrics()
	return checkInsTotal
}
