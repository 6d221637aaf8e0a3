package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryCoversEveryModule(t *testing.T) {
	reg := DefaultRegistry()
	modules := []string{
		"dashboard", "pdv", "delivery", "inventory", "financial", "marketing", "fiscal",
		"support", "ai", "white-label", "security", "multitenancy", "licensing",
		"settings", "users", "reports", "waiter", "totem", "integrations",
	}
	for _, module := range modules {
		assert.True(t, reg.Contains(PermissionKey(module+".view")), module)
	}
	assert.Equal(t, AllRoles(), reg.RolesFor(PermDashboardView))
}

func TestRolesForUnknownKeyIsEmpty(t *testing.T) {
	reg := DefaultRegistry()
	for _, key := range []PermissionKey{"", "inventory", "Inventory.view", "kitchen.view", "inventory.view "} {
		roles := reg.RolesFor(key)
		assert.NotNil(t, roles)
		assert.Empty(t, roles, key)
	}
	var nilReg *Registry
	assert.Empty(t, nilReg.RolesFor(PermDashboardView))
	assert.False(t, nilReg.Contains(PermDashboardView))
}

func TestRolesForReturnsCopy(t *testing.T) {
	reg := DefaultRegistry()
	roles := reg.RolesFor(PermInventoryView)
	require.Equal(t, []Role{RoleAdmin, RoleManager}, roles)
	roles[0] = RoleWaiter
	assert.Equal(t, []Role{RoleAdmin, RoleManager}, reg.RolesFor(PermInventoryView))

	perms := reg.AllPermissionsFor(RoleWaiter)
	perms[0] = "tampered.key"
	assert.NotContains(t, reg.AllPermissionsFor(RoleWaiter), PermissionKey("tampered.key"))
}

func TestAllPermissionsForMatchesRolesFor(t *testing.T) {
	reg := DefaultRegistry()
	for _, role := range AllRoles() {
		granted := make(map[PermissionKey]bool)
		for _, key := range reg.AllPermissionsFor(role) {
			granted[key] = true
		}
		for _, key := range reg.Keys() {
			assert.Equal(t, reg.Grants(key, role), granted[key], "%s %s", role, key)
		}
		assert.True(t, granted[PermDashboardView], role)
	}
	assert.Empty(t, reg.AllPermissionsFor(Role("chef")))
}

func TestNewRegistryRejectsBadTables(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry(map[PermissionKey][]Role{"Inventory.View": {RoleAdmin}})
	assert.ErrorContains(t, err, "malformed permission key")

	_, err = NewRegistry(map[PermissionKey][]Role{"inventory.view": {"chef"}})
	assert.ErrorContains(t, err, "unknown role")

	assert.Panics(t, func() { MustNewRegistry(map[PermissionKey][]Role{"bad": {RoleAdmin}}) })
}

func TestNewRegistryCopiesInput(t *testing.T) {
	roles := []Role{RoleAdmin}
	table := map[PermissionKey][]Role{"kitchen.view": roles}
	reg, err := NewRegistry(table)
	require.NoError(t, err)

	roles[0] = RoleWaiter
	table["kitchen.manage"] = []Role{RoleAdmin}

	assert.Equal(t, []Role{RoleAdmin}, reg.RolesFor("kitchen.view"))
	assert.False(t, reg.Contains("kitchen.manage"))
}

func TestValidateListsMissingKeys(t *testing.T) {
	reg := DefaultRegistry()
	assert.NoError(t, reg.Validate(PermInventoryView, PermFiscalManage, PermInventoryView))
	assert.NoError(t, reg.Validate())

	err := reg.Validate(PermInventoryView, "kitchen.view", "bar.manage", "kitchen.view")
	var unknown *UnknownPermissionsError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []PermissionKey{"bar.manage", "kitchen.view"}, unknown.Keys)
	assert.Contains(t, err.Error(), "bar.manage, kitchen.view")
}

func TestParseRole(t *testing.T) {
	for _, role := range AllRoles() {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}
	_, err := ParseRole("Admin")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Gerente", RoleManager.Label())
	assert.Equal(t, "Garçom", RoleWaiter.Label())
	assert.Equal(t, "Admin", RoleAdmin.Label())
}
