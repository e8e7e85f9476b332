package metrics

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetricsMiddleware returns a Gin middleware that records request
// metrics on the provided registry:
//
//   - authsync_http_requests_total            (CounterVec)   — method, route, status
//   - authsync_http_request_duration_seconds  (HistogramVec) — method, route, status
//   - authsync_http_requests_in_flight        (Gauge)
//
// A nil registry yields a no-op middleware. The route label uses
// c.FullPath() so unmatched catch-all traffic cannot explode cardinality.
func HTTPMetricsMiddleware(reg *prometheus.Registry) gin.HandlerFunc {
	if reg == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authsync_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authsync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "authsync_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		},
	)

	reg.MustRegister(requestsTotal, requestDuration, requestsInFlight)

	return func(c *gin.Context) {
		requestsInFlight.Inc()
		start := time.Now()

		// Runs even when the handler panics; metric recording itself must
		// never take the request down with it.
		defer func() {
			requestsInFlight.Dec()

			defer func() {
				if r := recover(); r != nil {
					log.Printf("[metrics] recovered from panic in HTTPMetricsMiddleware: %v", r)
				}
			}()

			elapsed := time.Since(start).Seconds()

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request.Method
			status := strconv.Itoa(c.Writer.Status())

			requestsTotal.WithLabelValues(method, route, status).Inc()
			requestDuration.WithLabelValues(method, route, status).Observe(elapsed)
		}()

		c.Next()
	}
}
