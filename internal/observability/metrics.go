package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics exposes Prometheus counters for token operations and HTTP
// traffic.
type Metrics struct {
	registry     *prometheus.Registry
	tokenOps     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpErrors   *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics initializes and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokenOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_operations_total",
				Help: "Total number of token authority operations",
			},
			[]string{"operation", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of failed HTTP requests by error code",
			},
			[]string{"path", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
	m.registry.MustRegister(m.tokenOps, m.httpRequests, m.httpErrors, m.httpDuration)
	return m
}

// RecordTokenOp increments the counter for a token authority operation.
func (m *Metrics) RecordTokenOp(operation, result string) {
	if m == nil {
		return
	}
	m.tokenOps.WithLabelValues(operation, result).Inc()
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(path, method, code).Inc()
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a standalone metrics listener. It blocks, so callers run it
// in a goroutine.
func (m *Metrics) Serve(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener stopped", zap.Error(err))
	}
}
