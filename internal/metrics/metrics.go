// Package metrics provides Prometheus metrics for the arbitrage dashboard.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// List Metrics
	ListQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_list_queries_total",
			Help: "Product list queries by execution strategy",
		},
		[]string{"strategy"}, // "pushdown" or "compute"
	)

	ListQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_list_query_duration_seconds",
			Help:    "Time taken to build one product list page",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"strategy"},
	)

	StatsComputedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arb_stats_computed_total",
			Help: "Total number of per-product stats computations",
		},
	)

	// Store Metrics
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_store_errors_total",
			Help: "Store read failures by operation",
		},
		[]string{"op"},
	)

	// Grading Metrics
	GradingMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_grading_matches_total",
			Help: "Gemrate lookups by how the row was matched",
		},
		[]string{"result"}, // "series", "description", "none"
	)

	GradingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arb_grading_cache_hits_total",
			Help: "Grading stats cache hit count (per series key)",
		},
	)

	GradingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arb_grading_cache_misses_total",
			Help: "Grading stats cache miss count (per series key)",
		},
	)
)
