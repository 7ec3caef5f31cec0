package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TradesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_trades_executed_total",
		Help: "Total number of trades executed by the matching engine",
	}, []string{"symbol"})

	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_orders_rejected_total",
		Help: "Total number of order placements rejected by validation",
	}, []string{"reason"})

	ClientsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exchange_clients_registered_total",
		Help: "Total number of registered client accounts",
	})

	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exchange_feed_connections",
		Help: "Number of active market-data feed sessions",
	})

	BroadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exchange_feed_broadcasts_dropped_total",
		Help: "Updates dropped because a session's send buffer was full",
	})

	TradesArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exchange_trades_archived_total",
		Help: "Total number of trades written to the archive",
	})
)
