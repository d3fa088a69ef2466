// Package metrics exposes engine and request metrics through Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultBuckets are the latency buckets in seconds: 5ms up to 10s.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Config defines how the collector names and registers its metrics.
type Config struct {
	Namespace string
	Subsystem string

	// Registry receives the metrics. A fresh registry is created when nil.
	Registry *prometheus.Registry

	// Buckets overrides DefaultBuckets for the duration histograms.
	Buckets []float64
}

// Collector holds the Prometheus metrics for engine runs and served requests.
// It implements router.Observer.
type Collector struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RateLimitedTotal *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with config.Registry.
func NewCollector(config Config) (*Collector, error) {
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	buckets := config.Buckets
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}

	c := &Collector{
		registry: registry,
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "chain_runs_total",
				Help:      "Total number of middleware chain runs by outcome.",
			},
			[]string{"method", "outcome", "status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "chain_run_duration_seconds",
				Help:      "Duration of middleware chain runs in seconds.",
				Buckets:   buckets,
			},
			[]string{"outcome"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served.",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   buckets,
			},
			[]string{"method"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by a rate limit.",
			},
			[]string{"bucket"},
		),
	}

	for _, collector := range []prometheus.Collector{
		c.RunsTotal,
		c.RunDuration,
		c.RequestsTotal,
		c.RequestDuration,
		c.RateLimitedTotal,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObserveRun records one engine run.
func (c *Collector) ObserveRun(method, outcome string, statusCode int, duration time.Duration) {
	c.RunsTotal.WithLabelValues(method, outcome, strconv.Itoa(statusCode)).Inc()
	c.RunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveRequest records one request served by the hosting mux.
func (c *Collector) ObserveRequest(method string, statusCode int, duration time.Duration) {
	c.RequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveRateLimited records a request rejected by the named rate limit bucket.
// Its signature matches middleware.RateLimitConfig.OnExceeded.
func (c *Collector) ObserveRateLimited(bucket string) {
	c.RateLimitedTotal.WithLabelValues(bucket).Inc()
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
