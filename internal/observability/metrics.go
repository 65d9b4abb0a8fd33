package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus metrics.
type Metrics struct {
	// Registry owns these metrics; exposed for the /metrics endpoint.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	queueRefreshes  prometheus.Counter
	dealsCreated    prometheus.Counter
	stageAdvances   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry avoids duplicate collector
// panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealflow_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealflow_requests_total",
				Help: "Total HTTP requests by route and status.",
			},
			[]string{"method", "route", "status"},
		),
		queueRefreshes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dealflow_queue_refreshes_total",
				Help: "Total discovery queue rebuilds.",
			},
		),
		dealsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dealflow_deals_created_total",
				Help: "Total deals opened from mutual interest.",
			},
		),
		stageAdvances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealflow_stage_advances_total",
				Help: "Total deal stage advances by destination stage.",
			},
			[]string{"stage"},
		),
	}
}

// IncrQueueRefresh counts one queue rebuild
func (m *Metrics) IncrQueueRefresh() {
	m.queueRefreshes.Inc()
}

// IncrDealCreated counts one newly opened deal
func (m *Metrics) IncrDealCreated() {
	m.dealsCreated.Inc()
}

// IncrStageAdvance counts a stage transition into the given stage
func (m *Metrics) IncrStageAdvance(stage string) {
	m.stageAdvances.WithLabelValues(stage).Inc()
}

// Middleware records per-request counters and latency. Routes are labeled by
// their registered pattern, not the raw path, to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requestsTotal.WithLabelValues(method, route, status).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
