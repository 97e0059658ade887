package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is the server's Prometheus instrumentation. Each Server owns its
// registry so tests can build several servers.
type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	exports  *prometheus.CounterVec
}

func newMetrics(limiter *core.ExportLimiter) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gamebook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamebook",
			Name:      "exports_total",
			Help:      "CSV exports by type, format and outcome.",
		}, []string{"type", "format", "outcome"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.exports,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gamebook",
			Name:      "exports_active",
			Help:      "Exports currently holding a slot.",
		}, func() float64 { return float64(limiter.ActiveCount()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// handler serves the registry in the Prometheus text format.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware records request counts and latency per chi route pattern.
// Unmatched paths share one label value.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// observeExport counts one export. Unknown type and format values collapse
// into "other" to bound label cardinality.
func (m *metrics) observeExport(req core.ExportRequest, err error) {
	kind := "other"
	switch req.Kind {
	case "", core.ExportSingle:
		kind = string(core.ExportSingle)
	case core.ExportAll, core.ExportSeason:
		kind = string(req.Kind)
	}

	format := "other"
	switch req.Format {
	case "", core.FormatCSV:
		format = string(core.FormatCSV)
	case core.FormatMetadataCSV, core.FormatTablesCSV:
		format = string(req.Format)
	}

	m.exports.WithLabelValues(kind, format, exportOutcome(err)).Inc()
}

func exportOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrTooManyExports):
		return "busy"
	}
	switch statusFor(err) {
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		return "error"
	default:
		return "rejected"
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
