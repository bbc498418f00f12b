// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by route pattern and status.
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records request latency in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockroom_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LedgerEntries counts committed audit entries by type.
	LedgerEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_ledger_entries_total",
			Help: "Audit entries committed by the inventory ledger",
		},
		[]string{"type"},
	)

	// LedgerFailures counts aborted ledger transactions by operation.
	LedgerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_ledger_failures_total",
			Help: "Ledger operations that rolled back",
		},
		[]string{"op"},
	)

	// AuthFailures counts rejected tokens and logins by reason.
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockroom_auth_failures_total",
			Help: "Rejected authentication attempts",
		},
		[]string{"reason"},
	)
)
