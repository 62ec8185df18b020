package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code. The
	// path label is the registered Gin route, never the raw URL, so
	// cardinality stays bounded.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges currently processing requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// ledgerCommands counts processed chat commands by trigger and outcome
	// (confirmed, parse_error, rejected, error). Triggers form a small fixed
	// set, so the label is safe.
	ledgerCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_commands_total",
			Help: "Total number of processed ledger commands.",
		},
		[]string{"trigger", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, ledgerCommands)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus:
// http_requests_total, http_request_duration_seconds, http_requests_inflight.
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// CountCommand records the outcome of one processed chat command. Handlers
// call it after dispatching an inbound event.
func CountCommand(trigger, outcome string) {
	ledgerCommands.WithLabelValues(trigger, outcome).Inc()
}
