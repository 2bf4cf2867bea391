package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connections is the number of open websocket sessions
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Name:      "connections",
		Help:      "Open websocket connections.",
	})

	// OnlineUsers is the number of identified users in the registry
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Name:      "online_users",
		Help:      "Users currently mapped to a connection.",
	})

	// InboundEvents counts dispatched client events by name
	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "inbound_events_total",
		Help:      "Inbound client events by event name.",
	}, []string{"event"})

	// DroppedEvents counts inbound events ignored as malformed or unknown
	DroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "dropped_events_total",
		Help:      "Inbound events dropped, by reason.",
	}, []string{"reason"})

	// DeliveryFailures counts frames that could not be handed to a connection
	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "delivery_failures_total",
		Help:      "Outbound frames that could not be queued for a connection.",
	})

	// MirrorDropped counts relayed messages the mirror could not publish
	MirrorDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "mirror_dropped_total",
		Help:      "Relayed messages not handed to the mirror (queue full or publish error).",
	})

	// TypingExpired counts typing records removed by the sweep
	TypingExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "typing_expired_total",
		Help:      "Typing indicators expired by the periodic sweep.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
