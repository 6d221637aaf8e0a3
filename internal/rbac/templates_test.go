package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFuncs(t *testing.T) {
	funcs := TemplateFuncs(NewAuthorizer(DefaultRegistry()))
	can := funcs["can"].(func(any, string) bool)
	hasRole := funcs["hasRole"].(func(any, ...string) bool)

	manager := testPrincipal(RoleManager, true)
	assert.True(t, can(manager, "inventory.view"))
	assert.False(t, can(manager, "kitchen.view"))
	assert.False(t, can(nil, "dashboard.view"))
	assert.False(t, can("admin", "dashboard.view"))

	assert.True(t, hasRole(manager, "admin", "gerente"))
	assert.False(t, hasRole(manager, "admin"))
	assert.False(t, hasRole(nil, "admin"))
}
