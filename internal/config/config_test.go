package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shoplane-labs/push-dispatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
gateway:
  app_id: app-1
  api_key: rest-key
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "https://onesignal.com/api/v1", cfg.Gateway.BaseURL)
	assert.Equal(t, "app-1", cfg.Gateway.AppID)
	assert.Equal(t, 10*time.Second, cfg.Gateway.RequestTimeout)
	assert.Equal(t, "./data/push.db", cfg.Storage.Path)
	assert.False(t, cfg.Auth.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("PUSH_DISPATCH_GATEWAY_APP_ID", "env-app")
	t.Setenv("PUSH_DISPATCH_GATEWAY_API_KEY", "env-key")
	t.Setenv("PUSH_DISPATCH_HTTP_ADDR", ":9090")

	// no file at this path: the service still starts from env alone
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-app", cfg.Gateway.AppID)
	assert.Equal(t, "env-key", cfg.Gateway.APIKey)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOnlyJWTSecret(t *testing.T) {
	t.Setenv("PUSH_DISPATCH_GATEWAY_APP_ID", "env-app")
	t.Setenv("PUSH_DISPATCH_GATEWAY_API_KEY", "env-key")
	t.Setenv("PUSH_DISPATCH_AUTH_ENABLED", "true")
	t.Setenv("PUSH_DISPATCH_AUTH_JWT_SECRET", "env-secret")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{}
	assert.Error(t, cfg.Validate())

	cfg.Gateway.AppID = "app-1"
	assert.Error(t, cfg.Validate())

	cfg.Gateway.APIKey = "rest-key"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}
