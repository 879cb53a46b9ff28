package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatapp_signaling_active_connections",
		Help: "Number of live websocket connections",
	})
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatapp_signaling_active_rooms",
		Help: "Number of rooms currently held in the room table",
	})
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatapp_signaling_active_calls",
		Help: "Number of rooms with a call in the Active state",
	})
)

// Counters
var (
	RoomsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_signaling_rooms_created_total",
		Help: "Total rooms created",
	})
	JoinsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_signaling_joins_rejected_total",
		Help: "Join attempts rejected by reason",
	}, []string{"reason"})
	MessagesRelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_signaling_messages_relayed_total",
		Help: "Messages forwarded between room members by event",
	}, []string{"event"})
	MessagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_signaling_messages_dropped_total",
		Help: "Outbound messages dropped because a send queue was full",
	})
	AuthFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_signaling_auth_failures_total",
		Help: "Credential verifications that did not yield a principal",
	})
	DisconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_signaling_disconnects_total",
		Help: "Connections torn down, voluntarily or by transport loss",
	})
)
