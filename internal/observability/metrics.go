package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	referenceFetches *prometheus.CounterVec
	hydrations       *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry, metrik HTTP, dan metrik enrichment.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesrecon_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salesrecon_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesrecon_reference_fetch_total",
		Help: "Jumlah lookup data referensi (produk, departemen) berdasarkan hasil.",
	}, []string{"kind", "outcome"})
	hydrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salesrecon_order_hydration_total",
		Help: "Jumlah order yang baris penjualannya dimuat ulang, berdasarkan hasil.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, fetches, hydrations)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		referenceFetches: fetches,
		hydrations:       hydrations,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ReferenceFetch mencatat satu lookup data referensi. Memenuhi
// salesrecon.FetchRecorder.
func (m *Metrics) ReferenceFetch(kind, outcome string) {
	if m == nil {
		return
	}
	m.referenceFetches.WithLabelValues(kind, outcome).Inc()
}

// Hydration mencatat satu pemuatan detail order. Memenuhi
// salesrecon.HydrationRecorder.
func (m *Metrics) Hydration(outcome string) {
	if m == nil {
		return
	}
	m.hydrations.WithLabelValues(outcome).Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
