package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthDecisionsTotal *prometheus.CounterVec // labels: outcome, reason
	SessionRenewals    prometheus.Counter
	SessionsPurged     prometheus.Counter

	// Storage metrics
	StorageOperationsTotal *prometheus.CounterVec // label: backend
	StorageFallbacksTotal  prometheus.Counter

	// Settings cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campushub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campushub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campushub_auth_decisions_total",
				Help: "Authorization gate decisions by outcome and deny reason",
			},
			[]string{"outcome", "reason"},
		),
		SessionRenewals: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campushub_session_renewals_total",
				Help: "Sliding session expiry renewals",
			},
		),
		SessionsPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campushub_sessions_purged_total",
				Help: "Expired sessions removed by the purge job",
			},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campushub_storage_operations_total",
				Help: "Media store operations by serving backend",
			},
			[]string{"backend"},
		),
		StorageFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campushub_storage_fallbacks_total",
				Help: "Remote store failures recovered by the local backend",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campushub_settings_cache_hits_total",
				Help: "Settings cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campushub_settings_cache_misses_total",
				Help: "Settings cache misses",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthDecisionsTotal,
		m.SessionRenewals,
		m.SessionsPurged,
		m.StorageOperationsTotal,
		m.StorageFallbacksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps an HTTP handler with request metrics
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
