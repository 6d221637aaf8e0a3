package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", "s3cret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.Equal(t, "demo", cfg.IdentitySource)
	assert.Equal(t, "123456", cfg.DemoCredential)
	assert.Equal(t, "comanda_session", cfg.SessionCookie)
	assert.EqualValues(t, 10, cfg.PGMaxConns)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownEnums(t *testing.T) {
	t.Setenv("CSRF_SECRET", "s3cret")
	t.Setenv("SESSION_BACKEND", "memcached")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "SessionBackend")

	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("IDENTITY_SOURCE", "ldap")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "IdentitySource")
}

func TestConfigRequiresCSRFSecret(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	assert.ErrorContains(t, cfg.Validate(), "csrf secret")
}

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"k":"v"`)
}
