// Package metrics holds the Prometheus collectors shared by the HTTP layer,
// the response cache and the background jobs. Collectors register with the
// default registry at init and are served by promhttp on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts served requests by route pattern, method and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmap_http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPDuration observes request latency by route pattern.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsmap_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// CacheLookups counts response cache lookups by tag and result
	// (hit, stale, miss).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmap_cache_lookups_total",
			Help: "Response cache lookups by result.",
		},
		[]string{"tag", "result"},
	)

	// UpstreamErrors counts failed store queries by operation.
	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmap_upstream_errors_total",
			Help: "Failed data store queries.",
		},
		[]string{"operation"},
	)

	// JobRuns counts scheduled job runs by job and outcome.
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmap_job_runs_total",
			Help: "Scheduled job runs by outcome.",
		},
		[]string{"job", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, CacheLookups, UpstreamErrors, JobRuns)
}

// Handler returns the HTTP handler that exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
