package view

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(nil)
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestPermissionKeysListsNavigationChecks(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	keys := engine.PermissionKeys()
	assert.Contains(t, keys, "inventory.view")
	assert.Contains(t, keys, "security.view")
	assert.IsNonDecreasing(t, keys)
}

func TestRenderLoginWithoutPrincipal(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/login.html", TemplateData{Title: "Entrar", CSRFToken: "tok", Data: map[string]any{}})
	require.NoError(t, err)
	body := res.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `value="tok"`)
	assert.False(t, strings.Contains(body, "Sair"), "anonymous pages must not offer logout")
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/login.html", TemplateData{}))
	assert.Nil(t, engine.PermissionKeys())
}
