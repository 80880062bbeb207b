// Package metrics provides Prometheus instrumentation for the
// full-disjunction integration engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	TuplesProcessed   *prometheus.CounterVec
	SilhouetteScore   *prometheus.HistogramVec
	ActiveRequests    prometheus.Gauge
	ClustersFormed    *prometheus.CounterVec
	ComplementWarnings prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all engine metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alite_requests_total",
				Help: "Total HTTP requests by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alite_request_duration_seconds",
				Help:    "HTTP request latency distribution.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),
		TuplesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alite_tuples_processed_total",
				Help: "Total tuples processed by direction (input/output) of an integration run.",
			},
			[]string{"direction"},
		),
		SilhouetteScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alite_silhouette_score",
				Help:    "Silhouette score of the chosen column clustering per integration run.",
				Buckets: []float64{-1, -0.5, 0, 0.25, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
			[]string{"endpoint"},
		),
		ActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "alite_active_requests",
				Help: "Number of integration requests currently being processed.",
			},
		),
		ClustersFormed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alite_clusters_formed_total",
				Help: "Total column clusters (integration ids) formed by L1/L2.",
			},
			[]string{"endpoint"},
		),
		ComplementWarnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alite_complement_warnings_total",
				Help: "Total complement-iteration-cap warnings raised across all runs.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.TuplesProcessed,
		m.SilhouetteScore,
		m.ActiveRequests,
		m.ClustersFormed,
		m.ComplementWarnings,
	)

	return m
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records a completed request's metrics.
func (m *Metrics) RecordRequest(endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordIntegration records full-disjunction-specific metrics for one run.
func (m *Metrics) RecordIntegration(endpoint string, inputTuples, outputTuples, clusterCount int, silhouette float64, warningCount int) {
	m.TuplesProcessed.WithLabelValues("input").Add(float64(inputTuples))
	m.TuplesProcessed.WithLabelValues("output").Add(float64(outputTuples))
	m.ClustersFormed.WithLabelValues(endpoint).Add(float64(clusterCount))
	m.SilhouetteScore.WithLabelValues(endpoint).Observe(silhouette)
	m.ComplementWarnings.Add(float64(warningCount))
}

// Middleware returns an HTTP middleware that instruments requests.
func (m *Metrics) Middleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ActiveRequests.Inc()
		defer m.ActiveRequests.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rw, r)

		m.RecordRequest(endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
