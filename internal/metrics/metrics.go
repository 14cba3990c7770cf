// Package metrics exposes Prometheus collectors for the HTTP API and the
// receipt, pantry and reminder flows. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expiry_tracker"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.HistogramVec
	receipts  *prometheus.CounterVec
	items     *prometheus.CounterVec
	reminders *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_processed_total",
			Help:      "Receipt uploads by outcome.",
		}, []string{"result"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pantry_items_total",
			Help:      "Pantry items confirmed or moved to a final status.",
		}, []string{"status"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Expiry reminders by delivery outcome.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.receipts,
		m.items,
		m.reminders,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware observes request latency. Unmatched routes are grouped under
// "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// ReceiptProcessed counts an upload outcome: success, error or rejected.
func (m *Metrics) ReceiptProcessed(result string) {
	if m == nil {
		return
	}
	m.receipts.WithLabelValues(result).Inc()
}

// PantryItems counts n items entering status.
func (m *Metrics) PantryItems(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(status).Add(float64(n))
}

// ReminderSent counts one reminder delivery attempt.
func (m *Metrics) ReminderSent(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.reminders.WithLabelValues(result).Inc()
}
