package rbac

// Requirement describes what a guard demands from a principal. The zero value
// demands nothing beyond being logged in.
type Requirement struct {
	Permission PermissionKey
	roles      []Role
	checkRoles bool
}

// Require demands a permission.
func Require(key PermissionKey) Requirement {
	return Requirement{Permission: key}
}

// RequireRoles demands one of roles. Calling it with no roles yields a
// requirement nobody satisfies.
func RequireRoles(roles ...Role) Requirement {
	return Requirement{}.WithRoles(roles...)
}

// WithRoles returns a copy of r that also demands one of roles.
func (r Requirement) WithRoles(roles ...Role) Requirement {
	r.roles = append([]Role(nil), roles...)
	r.checkRoles = true
	return r
}

// Roles returns the accepted roles and whether a role check is configured.
func (r Requirement) Roles() ([]Role, bool) {
	return append([]Role(nil), r.roles...), r.checkRoles
}

// Authorizer answers authorization questions against a Registry. Its methods
// never panic and never mutate state; absence of access is reported as false.
type Authorizer struct {
	registry *Registry
}

// NewAuthorizer constructs an Authorizer for the given registry.
func NewAuthorizer(registry *Registry) *Authorizer {
	return &Authorizer{registry: registry}
}

// Registry exposes the backing registry.
func (a *Authorizer) Registry() *Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

// HasPermission reports whether p may exercise key.
func (a *Authorizer) HasPermission(p *Principal, key PermissionKey) bool {
	if a == nil || p == nil || !p.IsActive() {
		return false
	}
	return a.registry.Grants(key, p.Role())
}

// HasRole reports whether p holds one of roles.
func (a *Authorizer) HasRole(p *Principal, roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role() == role {
			return true
		}
	}
	return false
}

// Allowed evaluates the predicate shared by every guard.
func (a *Authorizer) Allowed(p *Principal, req Requirement) bool {
	if p == nil {
		return false
	}
	if req.Permission != "" && !a.HasPermission(p, req.Permission) {
		return false
	}
	if req.checkRoles && !a.HasRole(p, req.roles...) {
		return false
	}
	return true
}
