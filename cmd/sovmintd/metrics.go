// metrics.go - Prometheus metrics for the mint authorization daemon.
package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	MintSubmissions *prometheus.CounterVec
	MintFailures    *prometheus.CounterVec
	VerifyDuration  prometheus.Histogram
	RateLimited     prometheus.Counter
}

// NewMetrics creates and registers the daemon metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		MintSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sovmint_submissions_total",
				Help: "Mint submissions by result",
			},
			[]string{"result"},
		),
		MintFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sovmint_failures_total",
				Help: "Rejected mint submissions by reason code",
			},
			[]string{"reason"},
		),
		VerifyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sovmint_submission_seconds",
				Help:    "End-to-end submission processing time",
				Buckets: prometheus.DefBuckets,
			},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sovmint_rate_limited_total",
				Help: "Submissions rejected by the per-minter rate limiter",
			},
		),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MintSubmissions,
		m.MintFailures,
		m.VerifyDuration,
		m.RateLimited,
	)
	return m
}

// Registry exposes the registry for components that register their own
// collectors, such as the event bus.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
