package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cctv_ws_connected_clients",
			Help: "Number of dashboards connected to the notification channel",
		},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cctv_ws_messages_total",
			Help: "Total number of frames queued to clients by message type",
		},
		[]string{"type"},
	)

	DroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cctv_ws_dropped_total",
			Help: "Frames dropped because a queue was full, by reason",
		},
		[]string{"reason"},
	)
)
