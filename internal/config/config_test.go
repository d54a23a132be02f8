package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "rentease"
  environment: "test"
database:
  path: "/tmp/rentease-test.db"
api:
  enabled: true
  http:
    port: 9081
  auth:
    enabled: true
    api_keys:
      - key: "secret"
        name: "admin"
        permissions: ["write:bookings"]
booking:
  strict_transitions: true
  rate_limit_requests: 3
  rate_limit_window: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rentease", cfg.App.Name)
	assert.Equal(t, "/tmp/rentease-test.db", cfg.Database.Path)
	assert.Equal(t, 9081, cfg.API.HTTP.Port)
	assert.True(t, cfg.Booking.StrictTransitions)
	assert.Equal(t, 3, cfg.Booking.RateLimitRequests)
	assert.Equal(t, 30, cfg.Booking.RateLimitWindow)
	require.Len(t, cfg.API.Auth.APIKeys, 1)
	assert.Equal(t, "admin", cfg.API.Auth.APIKeys[0].Name)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/rentease-test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.False(t, cfg.Booking.StrictTransitions)
	assert.Equal(t, 5, cfg.Booking.RateLimitRequests)
	assert.Equal(t, 60, cfg.Booking.RateLimitWindow)
	assert.Equal(t, 5, cfg.Notify.MaxRetries)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/from-env.db")
	path := writeConfig(t, `
database:
  path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, `
app:
  name: "rentease"
`))
	assert.Error(t, err, "missing database path must fail validation")

	_, err = Load(writeConfig(t, `
database:
  path: "/tmp/x.db"
notify:
  enabled: true
`))
	assert.Error(t, err, "enabled notify without webhook url must fail validation")
}
