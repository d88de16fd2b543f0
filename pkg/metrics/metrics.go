// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LedgerOperationsTotal counts ledger operations by name and outcome.
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations processed, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Time from submission to completion of a ledger operation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	LedgerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_pending_operations",
			Help: "Ledger operations queued or in flight across all sessions",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_active_sessions",
			Help: "Number of live ledger sessions",
		},
	)

	PriceRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_refresh_total",
			Help: "Price refresh runs, by outcome",
		},
		[]string{"outcome"},
	)

	WalletAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_api_requests_total",
			Help: "Calls made to the wallet backend, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	DatabaseConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "database_connections",
			Help: "Snapshot database connection pool stats",
		},
		[]string{"state"},
	)
)
