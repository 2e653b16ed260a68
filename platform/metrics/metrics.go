// Package metrics exposes Prometheus collectors for the HTTP layer and the
// quote lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application's collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	quoteTransitions *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_http_requests_total",
				Help: "HTTP requests by method, route template and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agency_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route template.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		quoteTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_quote_transitions_total",
				Help: "Quote status transitions by target status and actor.",
			},
			[]string{"to", "actor"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_quote_notifications_total",
				Help: "Quote notifications by kind and result.",
			},
			[]string{"kind", "result"},
		),
	}
}

// Middleware records request count and latency. Routes are labelled by their
// template, which keeps cardinality bounded and tokens out of label values.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// QuoteTransition counts one status change.
func (m *Metrics) QuoteTransition(to, actor string) {
	m.quoteTransitions.WithLabelValues(to, actor).Inc()
}

// Notification counts one notification attempt. result is "ok" or "error".
func (m *Metrics) Notification(kind, result string) {
	m.notifications.WithLabelValues(kind, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
