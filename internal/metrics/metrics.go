// Package metrics exposes Prometheus instrumentation for the coordinator:
// RED metrics per route plus routing-specific counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors and their private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	routed   *prometheus.CounterVec
	shards   prometheus.Gauge
}

// New creates and registers the collector set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shardkv_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shardkv_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shardkv_routed_operations_total",
			Help: "Operations forwarded to shards, by operation and target shard.",
		}, []string{"op", "shard"}),
		shards: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shardkv_registered_shards",
			Help: "Number of registered shards.",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.routed, m.shards)
	return m
}

// Handler serves the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records count and latency for every request. Unmatched
// paths collapse into one label to keep cardinality bounded.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveRouted counts one forwarded operation against its target shard.
func (m *Metrics) ObserveRouted(op, shard string) {
	m.routed.WithLabelValues(op, shard).Inc()
}

// SetShardCount updates the registered-shards gauge.
func (m *Metrics) SetShardCount(n int) {
	m.shards.Set(float64(n))
}
