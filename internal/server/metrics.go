package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"logpanel/internal/model"
	"logpanel/internal/store"
)

// Metrics holds the collectors served on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests.
	RequestDuration *prometheus.HistogramVec
	// LogsAdded counts entries submitted over HTTP by level.
	LogsAdded *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. The buffer gauge reads logs on
// every scrape.
func NewMetrics(reg *prometheus.Registry, logs *store.Store) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logpanel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logpanel_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LogsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logpanel_logs_added_total",
				Help: "Total number of log entries submitted over HTTP",
			},
			[]string{"level"},
		),
	}
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "logpanel_buffer_entries",
			Help: "Number of entries currently held in the log buffer",
		},
		func() float64 { return float64(logs.LogCount()) },
	)
	for _, level := range model.Levels {
		m.LogsAdded.WithLabelValues(string(level))
	}
	return m
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.RequestTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
