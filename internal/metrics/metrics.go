package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Routing metrics
	RoomMessagesRouted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_room_messages_routed_total",
			Help: "Total room messages persisted and fanned out",
		},
	)

	PrivateMessagesRouted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_private_messages_routed_total",
			Help: "Total private messages persisted",
		},
	)

	PrivateDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_private_deliveries_total",
			Help: "Total private messages pushed to a live connection",
		},
	)

	PrivateDeliveryMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_private_delivery_misses_total",
			Help: "Total private messages whose receiver was offline",
		},
	)

	// Fan-out metrics
	FanoutDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_fanout_deliveries_total",
			Help: "Total events enqueued to room subscribers",
		},
	)

	FanoutDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_fanout_drops_total",
			Help: "Total events dropped because a subscriber was slow",
		},
	)
)
