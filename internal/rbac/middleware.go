package rbac

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/comanda-erp/comanda/internal/platform/httpx"
)

// DefaultLoginPath is where ProtectedRoute sends anonymous visitors.
const DefaultLoginPath = "/auth/login"

// DenialReason tells a denial view why access was refused.
type DenialReason string

const (
	DenialPermission DenialReason = "permission"
	DenialRole       DenialReason = "role"
)

// Denial describes a refused request for rendering.
type Denial struct {
	Reason     DenialReason
	Permission PermissionKey
	Roles      []Role
	Principal  *Principal
}

// DenialRenderer writes the access denied view.
type DenialRenderer interface {
	RenderDenied(w http.ResponseWriter, r *http.Request, d Denial)
}

// DenialObserver is notified whenever a guard refuses a request.
type DenialObserver interface {
	ObserveDenial(guard string, reason string)
}

// MiddlewareConfig groups the dependencies of Middleware.
type MiddlewareConfig struct {
	Authorizer *Authorizer
	Denials    DenialRenderer
	LoginPath  string
	Logger     *slog.Logger
	Observer   DenialObserver
}

// Middleware wires authorization guards for HTTP handlers. Guards read the
// principal placed in the request context and never fail the request because
// of missing or malformed session state: they deny instead.
type Middleware struct {
	authz     *Authorizer
	denials   DenialRenderer
	loginPath string
	logger    *slog.Logger
	observer  DenialObserver
	keys      *keyCatalog
}

// NewMiddleware constructs Middleware.
func NewMiddleware(cfg MiddlewareConfig) Middleware {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return Middleware{
		authz:     cfg.Authorizer,
		denials:   cfg.Denials,
		loginPath: loginPath,
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		keys:      &keyCatalog{set: make(map[PermissionKey]struct{})},
	}
}

// Authorizer returns the decision service used by the guards.
func (m Middleware) Authorizer() *Authorizer {
	return m.authz
}

// ReferencedKeys lists every permission key handed to a guard so far.
func (m Middleware) ReferencedKeys() []PermissionKey {
	return m.keys.list()
}

// PermissionGuard renders next when allowed. Otherwise it renders fallback if
// showFallback is set, or nothing at all.
func (m Middleware) PermissionGuard(req Requirement, fallback http.Handler, showFallback bool) func(http.Handler) http.Handler {
	m.keys.add(req.Permission)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.allowed(r, req) {
				next.ServeHTTP(w, r)
				return
			}
			m.observe("permission_guard", "denied")
			if showFallback && fallback != nil {
				fallback.ServeHTTP(w, r)
				return
			}
			renderNothing(w)
		})
	}
}

// ConditionalRender renders next when allowed and fallback otherwise. A nil
// fallback renders nothing.
func (m Middleware) ConditionalRender(req Requirement, fallback http.Handler) func(http.Handler) http.Handler {
	if fallback == nil {
		fallback = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { renderNothing(w) })
	}
	return m.PermissionGuard(req, fallback, true)
}

// ProtectedRoute redirects anonymous visitors to the login page and renders
// a denial view for logged in principals that do not qualify. A role mismatch
// always produces the view naming the accepted roles; a permission denial
// renders fallback when one is given.
func (m Middleware) ProtectedRoute(req Requirement, fallback http.Handler) func(http.Handler) http.Handler {
	m.keys.add(req.Permission)
	roles, checkRoles := req.Roles()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				m.observe("protected_route", "unauthenticated")
				m.redirectToLogin(w, r)
				return
			}
			if checkRoles && !m.safely(func() bool { return m.authz.HasRole(p, roles...) }) {
				m.observe("protected_route", string(DenialRole))
				m.deny(w, r, Denial{Reason: DenialRole, Permission: req.Permission, Roles: roles, Principal: p})
				return
			}
			if req.Permission != "" && !m.safely(func() bool { return m.authz.HasPermission(p, req.Permission) }) {
				m.observe("protected_route", string(DenialPermission))
				if fallback != nil {
					fallback.ServeHTTP(w, r)
					return
				}
				m.deny(w, r, Denial{Reason: DenialPermission, Permission: req.Permission, Principal: p})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny ensures the current principal holds at least one of the
// permissions. It answers with RFC 7807 problems and suits JSON endpoints.
func (m Middleware) RequireAny(perms ...PermissionKey) func(http.Handler) http.Handler {
	return m.requireAPI("require_any", perms, func(p *Principal) bool {
		for _, key := range perms {
			if m.authz.HasPermission(p, key) {
				return true
			}
		}
		return false
	})
}

// RequireAll ensures the current principal holds all of the permissions.
func (m Middleware) RequireAll(perms ...PermissionKey) func(http.Handler) http.Handler {
	return m.requireAPI("require_all", perms, func(p *Principal) bool {
		for _, key := range perms {
			if !m.authz.HasPermission(p, key) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) requireAPI(guard string, perms []PermissionKey, check func(*Principal) bool) func(http.Handler) http.Handler {
	for _, key := range perms {
		m.keys.add(key)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			p := PrincipalFromContext(r.Context())
			if p == nil {
				m.observe(guard, "unauthenticated")
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			if !m.safely(func() bool { return check(p) }) {
				m.observe(guard, string(DenialPermission))
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) allowed(r *http.Request, req Requirement) bool {
	p := PrincipalFromContext(r.Context())
	return m.safely(func() bool { return m.authz.Allowed(p, req) })
}

// safely runs a decision and turns a panic into a denial.
func (m Middleware) safely(decide func() bool) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			if m.logger != nil {
				m.logger.Error("rbac decision panicked", slog.Any("panic", rec))
			}
			ok = false
		}
	}()
	return decide()
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, d Denial) {
	if m.denials == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	m.denials.RenderDenied(w, r, d)
}

func (m Middleware) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := m.loginPath
	if next := r.URL.RequestURI(); next != "" && next != "/" {
		target += "?" + url.Values{"next": {next}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (m Middleware) observe(guard, reason string) {
	if m.observer != nil {
		m.observer.ObserveDenial(guard, reason)
	}
}

func renderNothing(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

type keyCatalog struct {
	mu  sync.Mutex
	set map[PermissionKey]struct{}
}

func (c *keyCatalog) add(key PermissionKey) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	c.set[key] = struct{}{}
	c.mu.Unlock()
}

func (c *keyCatalog) list() []PermissionKey {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]PermissionKey, 0, len(c.set))
	for key := range c.set {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}
