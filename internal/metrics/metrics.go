// Package metrics exposes Prometheus collectors for the HTTP server and the
// authentication flows.
package metrics

import (
	"net/http" // HTTP handler
	"time"     // Durations

	"github.com/prometheus/client_golang/prometheus"            // Prometheus collectors
	"github.com/prometheus/client_golang/prometheus/collectors" // Go runtime and process collectors
	"github.com/prometheus/client_golang/prometheus/promhttp"   // Metrics endpoint
)

const namespace = "keja" // Prefix for every metric name

// Metrics holds every collector on its own registry
type Metrics struct {
	registry     *prometheus.Registry     // Private registry
	httpRequests *prometheus.CounterVec   // Requests by route and status
	httpDuration *prometheus.HistogramVec // Latency by route
	inFlight     prometheus.Gauge         // Requests being served
	authEvents   *prometheus.CounterVec   // Auth outcomes
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Login, registration and logout attempts by outcome.",
		}, []string{"event", "outcome"}),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.inFlight,
		m.authEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// IncrementInFlight marks a request as started
func (m *Metrics) IncrementInFlight() { m.inFlight.Inc() }

// DecrementInFlight marks a request as finished
func (m *Metrics) DecrementInFlight() { m.inFlight.Dec() }

// RecordHTTPRequest records one completed request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAuth counts an authentication event such as ("login", "bad_password")
func (m *Metrics) RecordAuth(event, outcome string) {
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
