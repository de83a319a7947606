// Package metrics exposes Prometheus counters for the dashboard's upstream
// calls, its own HTTP routes and the snapshot archive.
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

type Metrics struct {
	registry          *prometheus.Registry
	upstreamRequests  *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	sensorDecodeFails prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	snapshotsSaved    prometheus.Counter
	snapshotErrors    prometheus.Counter
}

// New builds a Metrics instance on its own registry so several can coexist
// in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herbscan_upstream_requests_total",
			Help: "Requests made to the scanning API by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "herbscan_upstream_request_duration_seconds",
			Help:    "Histogram of scanning API request durations by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sensorDecodeFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herbscan_sensor_decode_failures_total",
			Help: "Scan records whose sensor_data blob could not be decoded.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		snapshotsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herbscan_snapshots_saved_total",
			Help: "Analytics snapshots written to the archive.",
		}),
		snapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herbscan_snapshot_errors_total",
			Help: "Failed analytics snapshot writes.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequests,
		m.upstreamDuration,
		m.sensorDecodeFails,
		m.httpRequestsTotal,
		m.httpDuration,
		m.snapshotsSaved,
		m.snapshotErrors,
	)
	return m
}

// ObserveRequest records one scanning API call.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) SensorDecodeFailed() {
	if m == nil {
		return
	}
	m.sensorDecodeFails.Inc()
}

// SnapshotSaved records the outcome of one archive write.
func (m *Metrics) SnapshotSaved(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.snapshotErrors.Inc()
		return
	}
	m.snapshotsSaved.Inc()
}

// Middleware counts requests by matched route template and response status.
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
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
