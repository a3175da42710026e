package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "goldline", Name: "rides_created_total", Help: "Total rides created"})
	MessagesSent  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "goldline", Name: "messages_sent_total", Help: "Total chat messages written"})
	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "goldline", Name: "drivers_online", Help: "Drivers currently online"})
	WSClients     = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "goldline", Name: "ws_clients", Help: "Connected WebSocket clients"})

	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "goldline", Name: "ride_transitions_total", Help: "Ride status transitions applied"},
		[]string{"status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "goldline", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "goldline",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// GinMiddleware records per-route request counts and latency. The route
// template (not the raw URL) is used as the path label to keep
// cardinality bounded.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
