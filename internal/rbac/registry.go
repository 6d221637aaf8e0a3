package rbac

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var permissionKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*\.[a-z][a-z0-9-]*$`)

// Registry maps permission keys to the roles holding them. It is built once
// and never modified afterwards, so it is safe for concurrent readers.
type Registry struct {
	grants map[PermissionKey]map[Role]struct{}
	byRole map[Role][]PermissionKey
	keys   []PermissionKey
}

// UnknownPermissionsError lists permission keys referenced by guards that the
// registry does not define.
type UnknownPermissionsError struct {
	Keys []PermissionKey
}

func (e *UnknownPermissionsError) Error() string {
	names := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		names[i] = string(k)
	}
	return "rbac: permissions referenced but not registered: " + strings.Join(names, ", ")
}

var defaultRegistry = MustNewRegistry(defaultPolicy)

// DefaultRegistry returns the product policy.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// MustNewRegistry is like NewRegistry but panics on an invalid table.
func MustNewRegistry(table map[PermissionKey][]Role) *Registry {
	reg, err := NewRegistry(table)
	if err != nil {
		panic(err)
	}
	return reg
}

// NewRegistry validates and freezes a grant table.
func NewRegistry(table map[PermissionKey][]Role) (*Registry, error) {
	if len(table) == 0 {
		return nil, errors.New("rbac: empty policy table")
	}
	reg := &Registry{
		grants: make(map[PermissionKey]map[Role]struct{}, len(table)),
		byRole: make(map[Role][]PermissionKey, len(allRoles)),
		keys:   make([]PermissionKey, 0, len(table)),
	}
	for key, roles := range table {
		if !permissionKeyPattern.MatchString(string(key)) {
			return nil, fmt.Errorf("rbac: malformed permission key %q", key)
		}
		set := make(map[Role]struct{}, len(roles))
		for _, role := range roles {
			if !role.Valid() {
				return nil, fmt.Errorf("rbac: permission %s grants unknown role %q", key, role)
			}
			set[role] = struct{}{}
			reg.byRole[role] = append(reg.byRole[role], key)
		}
		reg.grants[key] = set
		reg.keys = append(reg.keys, key)
	}
	sortKeys(reg.keys)
	for role := range reg.byRole {
		sortKeys(reg.byRole[role])
	}
	return reg, nil
}

// RolesFor returns the roles holding key. Unknown keys yield an empty slice.
func (r *Registry) RolesFor(key PermissionKey) []Role {
	if r == nil {
		return []Role{}
	}
	set := r.grants[key]
	roles := make([]Role, 0, len(set))
	for role := range set {
		roles = append(roles, role)
	}
	sortRoles(roles)
	return roles
}

// AllPermissionsFor returns every key granted to role.
func (r *Registry) AllPermissionsFor(role Role) []PermissionKey {
	if r == nil {
		return []PermissionKey{}
	}
	keys := r.byRole[role]
	out := make([]PermissionKey, len(keys))
	copy(out, keys)
	return out
}

// Contains reports whether key is registered.
func (r *Registry) Contains(key PermissionKey) bool {
	if r == nil {
		return false
	}
	_, ok := r.grants[key]
	return ok
}

// Grants reports whether role holds key.
func (r *Registry) Grants(key PermissionKey, role Role) bool {
	if r == nil {
		return false
	}
	_, ok := r.grants[key][role]
	return ok
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []PermissionKey {
	if r == nil {
		return nil
	}
	out := make([]PermissionKey, len(r.keys))
	copy(out, r.keys)
	return out
}

// Validate checks that every referenced key is registered.
func (r *Registry) Validate(keys ...PermissionKey) error {
	seen := make(map[PermissionKey]struct{}, len(keys))
	var missing []PermissionKey
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !r.Contains(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sortKeys(missing)
	return &UnknownPermissionsError{Keys: missing}
}

func sortKeys(keys []PermissionKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
