// Package metrics exposes Prometheus collectors for the dashboard service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sourceRunsTotal            *prometheus.CounterVec
	sourceDurationSeconds      *prometheus.HistogramVec
	ingestionRunsTotal         prometheus.Counter
	ingestionDurationSeconds   prometheus.Histogram
	ingestionSourceOutcomes    *prometheus.GaugeVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		sourceRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_source_runs_total",
				Help: "Total adapter invocations, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		sourceDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_source_duration_seconds",
				Help:    "Histogram of per-source collection latencies.",
				Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
			},
			[]string{"source"},
		)

		ingestionRunsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_ingestion_runs_total",
				Help: "Total completed ingestion runs.",
			},
		)

		ingestionDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dashboard_ingestion_duration_seconds",
				Help:    "Histogram of whole-run durations.",
				Buckets: []float64{10, 30, 60, 120, 180, 300},
			},
		)

		ingestionSourceOutcomes = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashboard_ingestion_source_outcomes",
				Help: "Source counts from the most recent run, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Recorder adapts the package-level collectors to the orchestrator's
// observation interface.
type Recorder struct{}

// NewRecorder initializes the collectors and returns a Recorder.
func NewRecorder() Recorder {
	Init()
	return Recorder{}
}

// ObserveSource records one adapter outcome.
func (Recorder) ObserveSource(name string, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	sourceRunsTotal.WithLabelValues(name, outcome).Inc()
	sourceDurationSeconds.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveRun records a completed ingestion run.
func (Recorder) ObserveRun(succeeded, failed int, elapsed time.Duration) {
	ingestionRunsTotal.Inc()
	ingestionDurationSeconds.Observe(elapsed.Seconds())
	ingestionSourceOutcomes.WithLabelValues("ok").Set(float64(succeeded))
	ingestionSourceOutcomes.WithLabelValues("failed").Set(float64(failed))
}
