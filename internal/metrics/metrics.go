package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequests counts REST calls by operation and outcome
	// (ok, unauthorized, not_found, server_error, transport_error).
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "backend_requests_total",
			Help:      "The total number of requests sent to the rental backend",
		},
		[]string{"operation", "outcome"},
	)

	// BackendRequestDuration is the round-trip time of REST calls (summary with quantiles 0.5, 0.9, and 0.99)
	BackendRequestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "camrent",
			Name:       "backend_request_duration_seconds",
			Help:       "Round-trip time of requests sent to the rental backend",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"operation"},
	)

	// HTTPRequests counts BFF requests by route name and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "http_requests_total",
			Help:      "The total number of requests served by the web API",
		},
		[]string{"route", "code"},
	)

	// SessionsInvalidated counts sessions cleared after the backend refused a token.
	SessionsInvalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "sessions_invalidated_total",
			Help:      "Sessions cleared because the backend answered 401",
		},
	)

	// JobRuns counts scheduled job executions by job and result.
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camrent",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions",
		},
		[]string{"job", "result"},
	)
)
