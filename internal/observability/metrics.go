package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the panel.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	periodTransitions *prometheus.CounterVec
	snapshotRows      prometheus.Counter
	snapshotWarnings  prometheus.Counter
	reportDuration    *prometheus.HistogramVec
}

// NewMetrics initialises the registry with HTTP and domain metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hrpanel_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hrpanel_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hrpanel_period_transitions_total",
		Help: "Month lifecycle actions by kind.",
	}, []string{"action"})
	snapshotRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hrpanel_snapshot_rows_total",
		Help: "Store management snapshot rows archived.",
	})
	snapshotWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hrpanel_snapshot_warnings_total",
		Help: "Month opens that completed with a snapshot warning.",
	})
	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hrpanel_report_duration_seconds",
		Help:    "Report generation latency by report.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	registry.MustRegister(requests, duration, transitions, snapshotRows, snapshotWarnings, reportDuration)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		periodTransitions: transitions,
		snapshotRows:      snapshotRows,
		snapshotWarnings:  snapshotWarnings,
		reportDuration:    reportDuration,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route pattern.
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

// PeriodTransition counts a month lifecycle action.
func (m *Metrics) PeriodTransition(action string) {
	if m == nil {
		return
	}
	m.periodTransitions.WithLabelValues(action).Inc()
}

// SnapshotArchived adds archived snapshot rows.
func (m *Metrics) SnapshotArchived(rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.snapshotRows.Add(float64(rows))
}

// SnapshotWarning counts an open that surfaced an archive warning.
func (m *Metrics) SnapshotWarning() {
	if m == nil {
		return
	}
	m.snapshotWarnings.Inc()
}

// ObserveReport records how long a report took to build.
func (m *Metrics) ObserveReport(report string, took time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(took.Seconds())
}

// Registerer exposes the registry for custom metrics.
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
