package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/comanda-erp/comanda/internal/platform/httpx"
	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/session"
)

type principalResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	RoleLabel   string   `json:"roleLabel"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
	LastLogin   string   `json:"lastLogin,omitempty"`
}

type sessionResponse struct {
	State string             `json:"state"`
	User  *principalResponse `json:"user,omitempty"`
}

type checkResponse struct {
	Permission    string   `json:"permission,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	HasPermission bool     `json:"hasPermission"`
	HasRole       bool     `json:"hasRole"`
	Allowed       bool     `json:"allowed"`
}

type policyEntry struct {
	Key   string   `json:"key"`
	Roles []string `json:"roles"`
}

type policyResponse struct {
	Roles       []string      `json:"roles"`
	Permissions []policyEntry `json:"permissions"`
}

type matrixRow struct {
	Key    string
	Grants []bool
}

type matrixPage struct {
	Roles []roleView
	Rows  []matrixRow
}

// mountAPI registers the JSON endpoints under /api.
func mountAPI(r chi.Router, guards rbac.Middleware) {
	authz := guards.Authorizer()
	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		resp := sessionResponse{State: session.LoggedOut.String()}
		if store := session.StoreFromContext(r.Context()); store != nil && store.Snapshot().State == session.Authenticating {
			resp.State = session.Authenticating.String()
		}
		if p := rbac.PrincipalFromContext(r.Context()); p != nil {
			resp.State = session.LoggedIn.String()
			resp.User = toPrincipalResponse(p)
		}
		httpx.JSON(w, http.StatusOK, resp)
	})

	r.With(guards.RequireAll(rbac.PermDashboardView)).Get("/authz/check", func(w http.ResponseWriter, r *http.Request) {
		principal := rbac.PrincipalFromContext(r.Context())
		query := r.URL.Query()
		key := rbac.PermissionKey(strings.TrimSpace(query.Get("permission")))

		var req rbac.Requirement
		if key != "" {
			req = rbac.Require(key)
		}
		resp := checkResponse{Permission: key.String(), HasPermission: key != "" && authz.HasPermission(principal, key)}
		if raw, ok := query["roles"]; ok {
			roles, err := parseRoles(raw)
			if err != nil {
				httpx.RespondError(w, r, err)
				return
			}
			req = req.WithRoles(roles...)
			resp.HasRole = authz.HasRole(principal, roles...)
			for _, role := range roles {
				resp.Roles = append(resp.Roles, role.String())
			}
		}
		resp.Allowed = authz.Allowed(principal, req)
		httpx.JSON(w, http.StatusOK, resp)
	})

	r.With(guards.RequireAny(rbac.PermSecurityView)).Get("/policy", func(w http.ResponseWriter, r *http.Request) {
		registry := authz.Registry()
		resp := policyResponse{}
		for _, role := range rbac.AllRoles() {
			resp.Roles = append(resp.Roles, role.String())
		}
		for _, key := range registry.Keys() {
			entry := policyEntry{Key: key.String(), Roles: []string{}}
			for _, role := range registry.RolesFor(key) {
				entry.Roles = append(entry.Roles, role.String())
			}
			resp.Permissions = append(resp.Permissions, entry)
		}
		httpx.JSON(w, http.StatusOK, resp)
	})
}

// mountSecurity registers the permission matrix screen.
func mountSecurity(r chi.Router, guards rbac.Middleware, p pages) {
	registry := guards.Authorizer().Registry()
	r.With(guards.ProtectedRoute(rbac.Require(rbac.PermSecurityView), nil)).Get("/security/permissions", func(w http.ResponseWriter, r *http.Request) {
		roles := rbac.AllRoles()
		data := matrixPage{Roles: roleViews(roles)}
		for _, key := range registry.Keys() {
			row := matrixRow{Key: key.String(), Grants: make([]bool, len(roles))}
			for i, role := range roles {
				row.Grants[i] = registry.Grants(key, role)
			}
			data.Rows = append(data.Rows, row)
		}
		p.render(w, r, http.StatusOK, "pages/permissions.html", "Permissões", rbac.PrincipalFromContext(r.Context()), data)
	})
}

func parseRoles(raw []string) ([]rbac.Role, error) {
	roles := []rbac.Role{}
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			role, err := rbac.ParseRole(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
			}
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func toPrincipalResponse(p *rbac.Principal) *principalResponse {
	resp := &principalResponse{
		ID:          p.ID(),
		Name:        p.Name(),
		Email:       p.Email(),
		Role:        p.Role().String(),
		RoleLabel:   p.Role().Label(),
		Permissions: []string{},
		IsActive:    p.IsActive(),
	}
	for _, key := range p.Permissions() {
		resp.Permissions = append(resp.Permissions, key.String())
	}
	if last := p.LastLogin(); !last.IsZero() {
		resp.LastLogin = last.UTC().Format(time.RFC3339)
	}
	return resp
}
