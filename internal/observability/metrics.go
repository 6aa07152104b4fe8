// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Check metrics
	ChecksTotal        *prometheus.CounterVec
	CheckDuration      *prometheus.HistogramVec
	CheckFailures      *prometheus.CounterVec
	HoneypotsFlagged   *prometheus.CounterVec
	PaymentsRejected   prometheus.Counter
	SafetyScoreSummary *prometheus.HistogramVec

	// Cache metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	CacheEntries prometheus.Gauge

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec

	// Bot channel metrics
	WSSessions prometheus.Gauge
	WSMessages *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_safety_oracle"
	}

	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "total",
			Help:      "Total number of safety checks by chain, tier and cache outcome",
		}, []string{"chain", "tier", "cached"}),
		CheckDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Safety check duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"chain"}),
		CheckFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "failures_total",
			Help:      "Total number of rejected or failed check requests by reason",
		}, []string{"reason"}),
		HoneypotsFlagged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "honeypots_flagged_total",
			Help:      "Total number of results flagged as honeypot",
		}, []string{"chain"}),
		PaymentsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "rejected_total",
			Help:      "Total number of requests rejected for missing payment",
		}),
		SafetyScoreSummary: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "safety_score",
			Help:      "Distribution of computed safety scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"chain"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of result cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of result cache misses",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of cached results, stale entries included",
		}),

		UpstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream calls by provider and status",
		}, []string{"provider", "status"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Upstream call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),

		WSSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "sessions",
			Help:      "Current number of open bot websocket sessions",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_total",
			Help:      "Total number of websocket check messages by outcome",
		}, []string{"outcome"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCheck records one completed safety check.
func RecordCheck(chain, tier string, cached, honeypot bool, score int, seconds float64) {
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	DefaultMetrics.ChecksTotal.WithLabelValues(chain, tier, cachedLabel).Inc()
	DefaultMetrics.CheckDuration.WithLabelValues(chain).Observe(seconds)
	DefaultMetrics.SafetyScoreSummary.WithLabelValues(chain).Observe(float64(score))
	if honeypot {
		DefaultMetrics.HoneypotsFlagged.WithLabelValues(chain).Inc()
	}
}

// RecordCheckFailure increments the failed check counter.
func RecordCheckFailure(reason string) {
	DefaultMetrics.CheckFailures.WithLabelValues(reason).Inc()
}

// RecordPaymentRejected increments the payment rejection counter.
func RecordPaymentRejected() {
	DefaultMetrics.PaymentsRejected.Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
		return
	}
	DefaultMetrics.CacheMisses.Inc()
}

// UpdateCacheEntries sets the cache size gauge.
func UpdateCacheEntries(n int) {
	DefaultMetrics.CacheEntries.Set(float64(n))
}

// RecordUpstream records an upstream call and its latency.
func RecordUpstream(provider string, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.UpstreamRequests.WithLabelValues(provider, status).Inc()
	DefaultMetrics.UpstreamLatency.WithLabelValues(provider).Observe(seconds)
}

// WSSessionOpened increments the open session gauge.
func WSSessionOpened() {
	DefaultMetrics.WSSessions.Inc()
}

// WSSessionClosed decrements the open session gauge.
func WSSessionClosed() {
	DefaultMetrics.WSSessions.Dec()
}

// RecordWSMessage records one websocket message by outcome.
func RecordWSMessage(outcome string) {
	DefaultMetrics.WSMessages.WithLabelValues(outcome).Inc()
}
