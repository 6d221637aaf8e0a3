package app

import (
	"fmt"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/view"
)

// ValidatePolicy fails when a guard or template references a permission key
// the registry does not define.
func ValidatePolicy(registry *rbac.Registry, guards rbac.Middleware, templates *view.Engine) error {
	keys := guards.ReferencedKeys()
	for _, key := range templates.PermissionKeys() {
		keys = append(keys, rbac.PermissionKey(key))
	}
	if err := registry.Validate(keys...); err != nil {
		return fmt.Errorf("app: policy check: %w", err)
	}
	return nil
}
