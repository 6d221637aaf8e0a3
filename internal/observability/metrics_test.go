package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-erp/comanda/internal/shared"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `comanda_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `comanda_http_request_duration_seconds_bucket{route="/test"`)
}

func TestMetricsObserveSessionEvents(t *testing.T) {
	metrics := NewMetrics()
	ctx := context.Background()

	metrics.LoginSucceeded(ctx, "c1", nil)
	metrics.LoginFailed(ctx, "c1", "x@y.com", shared.ErrUnknownIdentity)
	metrics.LoginFailed(ctx, "c1", "x@y.com", shared.ErrInvalidCredentials)
	metrics.LoginFailed(ctx, "c1", "x@y.com", errors.New("timeout"))
	metrics.LoggedOut(ctx, "c1", nil)
	metrics.RestoreDiscarded(ctx, "c1", errors.New("corrupt"))
	metrics.ObserveDenial("protected_route", "role")

	body := scrape(t, metrics)
	for _, line := range []string{
		`comanda_login_attempts_total{outcome="success"} 1`,
		`comanda_login_attempts_total{outcome="unknown_identity"} 1`,
		`comanda_login_attempts_total{outcome="invalid_credentials"} 1`,
		`comanda_login_attempts_total{outcome="error"} 1`,
		`comanda_logouts_total 1`,
		`comanda_session_restore_discarded_total 1`,
		`comanda_guard_denials_total{guard="protected_route",reason="role"} 1`,
	} {
		assert.True(t, strings.Contains(body, line), line)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveDenial("require_any", "denied")
	metrics.LoginSucceeded(context.Background(), "c1", nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
