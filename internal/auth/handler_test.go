package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-erp/comanda/internal/auth"
	"github.com/comanda-erp/comanda/internal/platform/kv"
	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
	"github.com/comanda-erp/comanda/internal/view"
	_ "github.com/comanda-erp/comanda/testing"
)

const testClient = "0b6f3a4e-9c1d-4f0e-8a55-1d2c3b4a5f60"

type authFixture struct {
	router  http.Handler
	manager *session.Manager
	redis   *miniredis.Miniredis
}

func newAuthFixture(t *testing.T, latency time.Duration) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	records := kv.NewRedis(client, "comanda:", time.Hour)

	repo, err := auth.NewDemoRepository("123456")
	require.NoError(t, err)
	manager := session.NewManager(session.ManagerConfig{
		CookieName: "test_session",
		TTL:        time.Hour,
		Scope:      func(id string) kv.Store { return records.Scoped("client:" + id + ":") },
		Store:      session.StoreConfig{Authenticator: auth.NewService(repo, latency)},
	})
	templates, err := view.NewEngine(rbac.TemplateFuncs(rbac.NewAuthorizer(rbac.DefaultRegistry())))
	require.NoError(t, err)
	handler := auth.NewHandler(nil, templates, shared.NewCSRFManager("csrfsecret"))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			store := manager.Load(req.Context(), w, req)
			next.ServeHTTP(w, req.WithContext(session.ContextWithStore(req.Context(), store)))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return &authFixture{router: r, manager: manager, redis: mr}
}

func (f *authFixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: "test_session", Value: testClient})
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func TestLoginPage(t *testing.T) {
	f := newAuthFixture(t, 0)
	res := f.do(http.MethodGet, "/auth/login?next=/inventory", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `name="csrf_token"`)
	assert.Contains(t, body, `value="/inventory"`)
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	f := newAuthFixture(t, 0)
	res := f.do(http.MethodPost, "/auth/login", url.Values{
		"email":    {"Gerente@Restaurante.com "},
		"password": {"123456"},
		"next":     {"/inventory"},
	})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/inventory", res.Header().Get("Location"))

	snap := f.manager.Store(context.Background(), testClient).Snapshot()
	require.True(t, snap.LoggedIn())
	assert.Equal(t, rbac.RoleManager, snap.Principal.Role())
	assert.True(t, f.redis.Exists("comanda:client:"+testClient+":"+session.RecordKey))

	res = f.do(http.MethodGet, "/auth/login", nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, 0)
	for _, form := range []url.Values{
		{"email": {"admin@restaurante.com"}, "password": {"wrong"}},
		{"email": {"chef@restaurante.com"}, "password": {"123456"}},
	} {
		res := f.do(http.MethodPost, "/auth/login", form)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "E-mail ou senha inválidos")
		assert.Equal(t, session.LoggedOut, f.manager.Store(context.Background(), testClient).Snapshot().State)
	}
	assert.False(t, f.redis.Exists("comanda:client:"+testClient+":"+session.RecordKey))
}

func TestLoginValidatesForm(t *testing.T) {
	f := newAuthFixture(t, 0)
	res := f.do(http.MethodPost, "/auth/login", url.Values{"email": {"not-an-email"}})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "E-mail inválido")
	assert.Contains(t, body, "Campo obrigatório")
}

func TestLoginRejectsConcurrentAttempt(t *testing.T) {
	f := newAuthFixture(t, 300*time.Millisecond)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.do(http.MethodPost, "/auth/login", url.Values{"email": {"caixa@restaurante.com"}, "password": {"123456"}})
	}()

	store := f.manager.Store(context.Background(), testClient)
	require.Eventually(t, func() bool { return store.Snapshot().State == session.Authenticating }, time.Second, 5*time.Millisecond)

	res := f.do(http.MethodPost, "/auth/login", url.Values{"email": {"admin@restaurante.com"}, "password": {"123456"}})
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Contains(t, res.Body.String(), "Já existe um login em andamento")

	first := <-done
	assert.Equal(t, http.StatusSeeOther, first.Code)
	assert.Equal(t, rbac.RoleCashier, store.Principal().Role())
}

func TestLoginRejectsOffsiteRedirect(t *testing.T) {
	f := newAuthFixture(t, 0)
	res := f.do(http.MethodPost, "/auth/login", url.Values{
		"email":    {"admin@restaurante.com"},
		"password": {"123456"},
		"next":     {"//evil.example/"},
	})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
}

func TestLogoutClearsSession(t *testing.T) {
	f := newAuthFixture(t, 0)
	f.do(http.MethodPost, "/auth/login", url.Values{"email": {"garcom@restaurante.com"}, "password": {"123456"}})

	res := f.do(http.MethodPost, "/auth/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))
	assert.Equal(t, session.LoggedOut, f.manager.Store(context.Background(), testClient).Snapshot().State)
	assert.False(t, f.redis.Exists("comanda:client:"+testClient+":"+session.RecordKey))

	res = f.do(http.MethodPost, "/auth/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, res.Code)
}
