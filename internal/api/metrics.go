package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's prometheus instrumentation on a private
// registry, so tests can create servers without duplicate registration
// panics.
type Metrics struct {
	registry *prometheus.Registry

	simulationsTotal prometheus.Counter
	backtestsTotal   *prometheus.CounterVec
	sweepsTotal      prometheus.Counter
	sweepCellsTotal  prometheus.Counter
	requestDuration  *prometheus.HistogramVec
	rateLimited      prometheus.Counter
}

// NewMetrics creates the instrument set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		simulationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_simulations_total",
			Help: "Monte Carlo simulation runs served.",
		}),
		backtestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_backtests_total",
			Help: "Backtest runs served, by engine kind.",
		}, []string{"kind"}),
		sweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_sweeps_total",
			Help: "Parameter grid sweeps started.",
		}),
		sweepCellsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_sweep_cells_total",
			Help: "Grid cells completed across all sweeps.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quant_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quant_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	registry.MustRegister(
		m.simulationsTotal,
		m.backtestsTotal,
		m.sweepsTotal,
		m.sweepCellsTotal,
		m.requestDuration,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the standard exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with latency and status observation.
func (m *Metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		m.requestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	}
}
