package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	logouts         prometheus.Counter
	guardDenials    *prometheus.CounterVec
	restoreDiscards prometheus.Counter
}

// NewMetrics initialises the registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comanda_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "comanda_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comanda_login_attempts_total",
		Help: "Completed login attempts by outcome.",
	}, []string{"outcome"})
	logouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comanda_logouts_total",
		Help: "Sessions ended by logout or replacement.",
	})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comanda_guard_denials_total",
		Help: "Access denials by guard and reason.",
	}, []string{"guard", "reason"})
	discards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comanda_session_restore_discarded_total",
		Help: "Persisted session records discarded during restore.",
	})
	registry.MustRegister(requests, duration, logins, logouts, denials, discards)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		logins:          logins,
		logouts:         logouts,
		guardDenials:    denials,
		restoreDiscards: discards,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
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

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Gatherer exposes the registry for inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// ObserveDenial counts a guard denial.
func (m *Metrics) ObserveDenial(guard, reason string) {
	if m == nil {
		return
	}
	m.guardDenials.WithLabelValues(guard, reason).Inc()
}

// LoginSucceeded counts a successful login.
func (m *Metrics) LoginSucceeded(context.Context, string, *rbac.Principal) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues("success").Inc()
}

// LoginFailed counts a failed login by outcome.
func (m *Metrics) LoginFailed(_ context.Context, _ string, _ string, err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(loginOutcome(err)).Inc()
}

// LoggedOut counts an ended session.
func (m *Metrics) LoggedOut(context.Context, string, *rbac.Principal) {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// RestoreDiscarded counts a discarded session record.
func (m *Metrics) RestoreDiscarded(context.Context, string, error) {
	if m == nil {
		return
	}
	m.restoreDiscards.Inc()
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, shared.ErrUnknownIdentity):
		return "unknown_identity"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
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

var (
	_ session.Observer    = (*Metrics)(nil)
	_ rbac.DenialObserver = (*Metrics)(nil)
)
