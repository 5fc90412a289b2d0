// Package observability holds the Prometheus metrics exported on /metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts handled requests by route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "smartsplit",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by method, route and status code.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks request latency by route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "smartsplit",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// RateLimited counts requests rejected by the per-IP limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "smartsplit",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests rejected by the rate limiter.",
})

// SuspiciousRequests counts requests flagged by the security detector.
var SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "smartsplit",
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Total requests matching a suspicious pattern.",
})

// ─── Budget ─────────────────────────────────────────────────────────────────

// BudgetsSaved counts stored budget versions.
var BudgetsSaved = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "smartsplit",
	Subsystem: "budget",
	Name:      "saved_total",
	Help:      "Total budget versions saved.",
})

// AllocationComputations counts engine runs by operation.
var AllocationComputations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "smartsplit",
	Subsystem: "allocation",
	Name:      "computations_total",
	Help:      "Total allocation computations by operation.",
}, []string{"operation"})

// ─── Export ─────────────────────────────────────────────────────────────────

// Exports counts export attempts by result (ok, error).
var Exports = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "smartsplit",
	Subsystem: "export",
	Name:      "attempts_total",
	Help:      "Total allocation export attempts by result.",
}, []string{"result"})

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveExport records the outcome of an export attempt.
func ObserveExport(err error) {
	if err != nil {
		Exports.WithLabelValues("error").Inc()
		return
	}
	Exports.WithLabelValues("ok").Inc()
}
