// Package metrics holds the Prometheus collectors of the eats client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the eats collectors.
	Registry = prometheus.NewRegistry()

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eats",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend API requests by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eats",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of backend API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"operation"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eats",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result (hit, miss, expired).",
		},
		[]string{"cache", "result"},
	)

	tokenFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eats",
			Subsystem: "auth",
			Name:      "token_failures_total",
			Help:      "Bearer token lookups that failed and were skipped.",
		},
	)

	searchQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eats",
			Subsystem: "search",
			Name:      "queries_total",
			Help:      "Search index queries by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	Registry.MustRegister(apiRequests, apiDuration, cacheLookups, tokenFailures, searchQueries)
}

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheExpired = "expired"
)

// Outcome labels a finished call. An empty kind means success.
func Outcome(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}

// RecordAPIRequest records one backend request.
func RecordAPIRequest(operation, outcome string, elapsed time.Duration) {
	apiRequests.WithLabelValues(operation, outcome).Inc()
	apiDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordCacheLookup records one cache lookup.
func RecordCacheLookup(cache, result string) {
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordTokenFailure records a skipped bearer token.
func RecordTokenFailure() {
	tokenFailures.Inc()
}

// RecordSearch records one search index query.
func RecordSearch(kind, outcome string) {
	searchQueries.WithLabelValues(kind, outcome).Inc()
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// CacheLookups exposes the cache lookup counter for inspection.
func CacheLookups() *prometheus.CounterVec {
	return cacheLookups
}
