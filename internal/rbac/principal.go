package rbac

import (
	"context"
	"time"
)

// Principal is an authenticated user. Values are immutable once built;
// changing the role produces a new Principal.
type Principal struct {
	id          string
	name        string
	email       string
	role        Role
	permissions []PermissionKey
	active      bool
	lastLogin   time.Time
}

// PrincipalParams carries the identity fields of a Principal.
type PrincipalParams struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	LastLogin time.Time
}

// NewPrincipal builds a Principal whose permissions are derived from its role.
func NewPrincipal(params PrincipalParams, registry *Registry) *Principal {
	return &Principal{
		id:          params.ID,
		name:        params.Name,
		email:       params.Email,
		role:        params.Role,
		permissions: registry.AllPermissionsFor(params.Role),
		active:      params.IsActive,
		lastLogin:   params.LastLogin.UTC(),
	}
}

// WithRole returns a copy of p holding role and the permissions derived from it.
func (p *Principal) WithRole(role Role, registry *Registry) *Principal {
	if p == nil {
		return nil
	}
	params := p.Params()
	params.Role = role
	return NewPrincipal(params, registry)
}

// Params returns the identity fields of p.
func (p *Principal) Params() PrincipalParams {
	if p == nil {
		return PrincipalParams{}
	}
	return PrincipalParams{
		ID:        p.id,
		Name:      p.name,
		Email:     p.email,
		Role:      p.role,
		IsActive:  p.active,
		LastLogin: p.lastLogin,
	}
}

func (p *Principal) ID() string {
	if p == nil {
		return ""
	}
	return p.id
}

func (p *Principal) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

func (p *Principal) Email() string {
	if p == nil {
		return ""
	}
	return p.email
}

func (p *Principal) Role() Role {
	if p == nil {
		return ""
	}
	return p.role
}

// IsActive reports whether the account may exercise its permissions.
func (p *Principal) IsActive() bool {
	return p != nil && p.active
}

func (p *Principal) LastLogin() time.Time {
	if p == nil {
		return time.Time{}
	}
	return p.lastLogin
}

// Permissions returns a sorted copy of the granted keys.
func (p *Principal) Permissions() []PermissionKey {
	if p == nil {
		return nil
	}
	out := make([]PermissionKey, len(p.permissions))
	copy(out, p.permissions)
	return out
}

type principalContextKey struct{}

// ContextWithPrincipal stores the request principal in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the request principal, or nil when nobody is logged in.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
