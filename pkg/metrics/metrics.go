package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	// AccessChecks counts roadmap access evaluations and their outcome (allow|deny|error).
	AccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_access_checks_total",
			Help: "Total number of roadmap access checks",
		},
		[]string{"permission", "result"},
	)

	// LinkVisits counts shareable link resolutions by outcome (ok|gone|denied).
	LinkVisits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_link_visits_total",
			Help: "Total number of shareable link visits",
		},
		[]string{"result"},
	)

	// ImportedRows counts features ingested through bulk uploads by format.
	ImportedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_imported_rows_total",
			Help: "Total number of features ingested through imports",
		},
		[]string{"format"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compass_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
