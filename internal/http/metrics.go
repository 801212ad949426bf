package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"revdash/internal/amqp"
	"revdash/internal/cache"
	"revdash/internal/dashboard"
)

const metricsNamespace = "revdash"

// Metrics collects the Prometheus metrics served on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	selections      *prometheus.CounterVec
	validationErrs  prometheus.Counter
	chartRenders    *prometheus.CounterVec
	chartFailures   *prometheus.CounterVec
	rateLimitHits   prometheus.Counter
	suspicious      prometheus.Counter
}

// NewMetrics creates a registry with the request and dashboard metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "selection_changes_total",
			Help:      "Selection changes by the event that caused them.",
		}, []string{"event"}),
		validationErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "selection_validation_errors_total",
			Help:      "Rejected selection requests.",
		}),
		chartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chart_renders_total",
			Help:      "Charts rendered, cache hits excluded.",
		}, []string{"chart"}),
		chartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chart_render_failures_total",
			Help:      "Charts replaced by a placeholder.",
		}, []string{"chart", "reason"}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_hits_total",
			Help:      "Selection requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "suspicious_requests_total",
			Help:      "Requests for known scanner paths.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.selections,
		m.validationErrs,
		m.chartRenders,
		m.chartFailures,
		m.rateLimitHits,
		m.suspicious,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Middleware records count and duration of every request by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveDashboard exports the state version and counts selection changes.
// Changes are counted from the dashboard itself, so requests that leave the
// selection unchanged are not counted.
func (m *Metrics) ObserveDashboard(dash *dashboard.Dashboard, started time.Time) {
	dash.Subscribe(func(_ context.Context, c dashboard.Change) {
		m.selections.WithLabelValues(c.Event.Name()).Inc()
	})
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "selection_version",
			Help:      "Current dashboard state version.",
		}, func() float64 { return float64(dash.Snapshot().Version) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the server was created.",
		}, func() float64 { return time.Since(started).Seconds() }),
	)
}

// ObserveCache exports hit, miss and size statistics of a named cache.
func (m *Metrics) ObserveCache(name string, stats func() cache.Stats) {
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "cache_hits_total",
			Help:        "Cache hits.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "cache_misses_total",
			Help:        "Cache misses.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "cache_entries",
			Help:        "Current cache entries.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Size) }),
	)
}

// ObserveAMQP exports selection publisher outcomes.
func (m *Metrics) ObserveAMQP(stats func() amqp.Stats) {
	outcome := func(name string, value func(amqp.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "amqp_messages_total",
			Help:        "Selection notifications by outcome.",
			ConstLabels: prometheus.Labels{"outcome": name},
		}, func() float64 { return float64(value(stats())) })
	}
	m.registry.MustRegister(
		outcome("published", func(s amqp.Stats) uint64 { return s.Published }),
		outcome("dropped", func(s amqp.Stats) uint64 { return s.Dropped }),
		outcome("failed", func(s amqp.Stats) uint64 { return s.Failed }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "amqp_pending_messages",
			Help:      "Selection notifications waiting in the buffer.",
		}, func() float64 { return float64(stats().Pending) }),
	)
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
