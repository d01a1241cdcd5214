package middleware

// Prometheus instrumentation for HTTP traffic. The path label is the
// registered route, and unmatched requests share one label value so probes
// against random URLs cannot blow up cardinality.

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedPath = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Record pages are small JSON documents; the top bucket covers a full
	// page of the largest allowed size.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 2, 12),
		},
		[]string{"method", "path"},
	)

	httpRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rejected_total",
			Help: "Requests rejected by middleware before reaching a handler.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, httpRejected)
}

// Rejection reasons counted by http_rejected_total.
const (
	rejectUnauthenticated = "unauthenticated"
	rejectRateLimited     = "rate_limited"
	rejectIdempotencyKey  = "bad_idempotency_key"
)

func countRejection(reason string) { httpRejected.WithLabelValues(reason).Inc() }

// Metrics records count, latency, in-flight and response size per route.
// Expose the registry with promhttp.Handler on /metrics.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
