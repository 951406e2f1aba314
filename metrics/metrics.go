package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wavechat_messages_sent_total",
			Help: "Total direct messages persisted",
		},
	)

	LiveDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavechat_live_deliveries_total",
			Help: "Events pushed to live websocket connections",
		},
		[]string{"event"}, // "new_message" or "message_sent"
	)

	PushNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavechat_push_notifications_total",
			Help: "Best-effort push notification dispatches",
		},
		[]string{"status"}, // "sent" or "failed"
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wavechat_ws_active_connections",
			Help: "Currently open websocket connections",
		},
	)

	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wavechat_online_users",
			Help: "Users with at least one joined connection",
		},
	)
)
