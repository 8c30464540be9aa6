package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors.
type Metrics struct {
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Uploads by outcome: stored, rejected, failed
	UploadTotal *prometheus.CounterVec
	// Served renditions by kind and visibility verdict
	ServeTotal *prometheus.CounterVec
	// Bytes streamed to clients by rendition kind
	ServeBytes *prometheus.CounterVec

	ViewFlushTotal prometheus.Counter
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Get returns the process wide metrics, registering them on first use.
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
		registerMetrics(globalMetrics)
	})
	return globalMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		UploadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_uploads_total",
			Help: "Total number of upload attempts by outcome",
		}, []string{"outcome"}),

		ServeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_serve_total",
			Help: "Total number of rendition requests by kind and verdict",
		}, []string{"kind", "verdict"}),

		ServeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_serve_bytes_total",
			Help: "Bytes of renditions sent to clients",
		}, []string{"kind"}),

		ViewFlushTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_view_counter_flushes_total",
			Help: "Number of buffered view counts written to the database",
		}),
	}
}

func registerMetrics(m *Metrics) {
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.UploadTotal)
	registerOrGet(m.ServeTotal)
	registerOrGet(m.ServeBytes)
	registerOrGet(m.ViewFlushTotal)
}

// registerOrGet registers c with the default registry, tolerating a previous
// registration.
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// Middleware records request counts and latencies per matched route.
func Middleware() fiber.Handler {
	m := Get()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.HTTPRequestTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
