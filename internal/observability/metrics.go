// Package observability exposes Prometheus metrics for the AI gateway.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemind_ai_dispatches_total",
			Help: "Total number of provider dispatches",
		},
		[]string{"provider", "operation", "outcome"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitemind_ai_dispatch_duration_seconds",
			Help:    "Provider round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemind_ai_rate_limited_total",
			Help: "Total number of requests denied by the rate limiter",
		},
	)

	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemind_ai_cache_hits_total",
			Help: "Total number of AI response cache hits",
		},
	)

	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemind_ai_cache_misses_total",
			Help: "Total number of AI response cache misses",
		},
	)
)

// Collector records gateway metrics. It implements the gateway's Hooks
// interface.
type Collector struct{}

// NewCollector creates a metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// ObserveDispatch records one provider round trip.
func (c *Collector) ObserveDispatch(provider, operation string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	dispatchesTotal.WithLabelValues(provider, operation, outcome).Inc()
	dispatchDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// RecordRateLimited records a rate-limiter denial.
func (c *Collector) RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// RecordCacheHit records an AI response cache hit.
func (c *Collector) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records an AI response cache miss.
func (c *Collector) RecordCacheMiss() {
	cacheMisses.Inc()
}
