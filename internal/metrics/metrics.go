// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cse_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cse_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cse_messages_sent_total",
			Help: "Messages persisted, by origin (form or realtime).",
		},
		[]string{"origin"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cse_notifications_delivered_total",
			Help: "Realtime events written to a connection send queue.",
		},
		[]string{"event"},
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cse_notifications_dropped_total",
			Help: "Realtime events not delivered, by reason.",
		},
		[]string{"reason"},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cse_realtime_connections",
			Help: "Open websocket connections.",
		},
	)

	PanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cse_http_panics_recovered_total",
			Help: "Handler panics caught by the recovery middleware.",
		},
	)
)
