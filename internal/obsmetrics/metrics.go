// Package obsmetrics exposes Prometheus metrics for the zk-sca prove/verify
// domain, adapted from the teacher's backend/pkg/metrics package.
package obsmetrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	proveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zksca_prove_total",
			Help: "Total number of prove attempts, by outcome",
		},
		[]string{"service", "status"},
	)

	proveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zksca_prove_duration_seconds",
			Help:    "Prove call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service"},
	)

	verifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zksca_verify_total",
			Help: "Total number of verify attempts, by outcome",
		},
		[]string{"service", "status"},
	)

	verifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zksca_verify_duration_seconds",
			Help:    "Verify call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"service"},
	)

	resolvedDependencies = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zksca_resolved_dependencies",
			Help:    "Number of fully-resolved dependencies audited per prove call",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"service"},
	)
)

// Config holds metrics configuration.
type Config struct {
	ServiceName string
}

var config Config

// Initialize sets up metrics with the given service name.
func Initialize(cfg Config) {
	config = cfg
}

// HTTPMiddleware returns a gin middleware that records HTTP metrics.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		httpRequestsInFlight.WithLabelValues(config.ServiceName).Inc()
		defer httpRequestsInFlight.WithLabelValues(config.ServiceName).Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		httpRequestsTotal.WithLabelValues(config.ServiceName, method, path, http.StatusText(status)).Inc()
		httpRequestDuration.WithLabelValues(config.ServiceName, method, path, http.StatusText(status)).Observe(duration)
	}
}

// RecordProve records a prove call's outcome and duration.
func RecordProve(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	proveTotal.WithLabelValues(config.ServiceName, status).Inc()
	proveDuration.WithLabelValues(config.ServiceName).Observe(duration.Seconds())
}

// RecordVerify records a verify call's outcome and duration.
func RecordVerify(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	verifyTotal.WithLabelValues(config.ServiceName, status).Inc()
	verifyDuration.WithLabelValues(config.ServiceName).Observe(duration.Seconds())
}

// RecordResolvedDependencies records how many dependencies a prove call
// audited.
func RecordResolvedDependencies(count int) {
	resolvedDependencies.WithLabelValues(config.ServiceName).Observe(float64(count))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
