// Package metrics holds the Prometheus collectors exported on /metrics.
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

const namespace = "agriconnect"

// Metrics bundles the collectors on a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	provisioned  *prometheus.CounterVec
	lifecycle    *prometheus.CounterVec
	auditDropped prometheus.Counter
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		provisioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "total",
			Help:      "Organizations provisioned or joined, by mode.",
		}, []string{"mode"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "rows_affected_total",
			Help:      "Rows changed by admin lifecycle actions, by action.",
		}, []string{"action"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "dropped_total",
			Help:      "Audit events that could not be enqueued.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.provisioned,
		m.lifecycle,
		m.auditDropped,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Provisioned counts one successful provisioning in mode.
func (m *Metrics) Provisioned(mode string) {
	if m == nil {
		return
	}
	m.provisioned.WithLabelValues(mode).Inc()
}

// Lifecycle adds n affected rows for action.
func (m *Metrics) Lifecycle(action string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.lifecycle.WithLabelValues(action).Add(float64(n))
}

// AuditDropped counts an audit event lost to a queue failure.
func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

// Middleware observes request latency labelled by the matched route, not the raw path.
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
		m.httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
