package rbac

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is a job function that determines default authorization.
type Role string

// Roles known to the product. The set is closed.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "gerente"
	RoleCashier Role = "caixa"
	RoleWaiter  Role = "garcom"
)

var allRoles = []Role{RoleAdmin, RoleManager, RoleCashier, RoleWaiter}

var roleLabels = map[Role]string{
	RoleWaiter: "garçom",
}

var labelCaser = cases.Title(language.BrazilianPortuguese)

// AllRoles returns every known role in declaration order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole converts a wire value into a Role.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q", value)
	}
	return r, nil
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleWaiter:
		return true
	}
	return false
}

// Label returns a human readable name for the role.
func (r Role) Label() string {
	name, ok := roleLabels[r]
	if !ok {
		name = string(r)
	}
	return labelCaser.String(name)
}

func (r Role) String() string { return string(r) }

func (r Role) rank() int {
	for i, known := range allRoles {
		if known == r {
			return i
		}
	}
	return len(allRoles)
}

func sortRoles(roles []Role) {
	sort.SliceStable(roles, func(i, j int) bool {
		ri, rj := roles[i].rank(), roles[j].rank()
		if ri != rj {
			return ri < rj
		}
		return roles[i] < roles[j]
	})
}

// PermissionKey identifies a capability in the form "<module>.<action>".
// Keys are opaque and case-sensitive.
type PermissionKey string

func (k PermissionKey) String() string { return string(k) }
