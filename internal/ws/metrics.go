package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of WebSocket connections registered on this instance",
		},
	)

	eventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_sent_total",
			Help: "Events queued to local WebSocket clients",
		},
		[]string{"type"},
	)

	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_events_dropped_total",
			Help: "Events dropped because a client send buffer was full",
		},
	)

	framesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_frames_received_total",
			Help: "Inbound frames by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)
