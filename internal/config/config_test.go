package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REGISTRY_DATABASE__URL", "postgres://localhost/registry")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, "postgres://localhost/registry", cfg.Database.URL)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.RateLimit.RedisURL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
  read_timeout: 3s
database:
  url: postgres://db/registry
  max_conns: 25
  auto_migrate: false
log:
  level: debug
  format: text
cors:
  allowed_origins:
    - https://app.example.com
rate_limit:
  requests: 10
  window: 1m
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout, "unset keys keep defaults")
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/registry
rate_limit:
  requests: 10
`)
	t.Setenv("REGISTRY_DATABASE__URL", "postgres://env/registry")
	t.Setenv("REGISTRY_RATE_LIMIT__REQUESTS", "42")
	t.Setenv("REGISTRY_RATE_LIMIT__REDIS_URL", "redis://cache:6379/0")
	t.Setenv("REGISTRY_CORS__ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("REGISTRY_DATABASE__CONNECT_TIMEOUT", "5s")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "postgres://env/registry", cfg.Database.URL)
	assert.Equal(t, 42, cfg.RateLimit.Requests)
	assert.Equal(t, "redis://cache:6379/0", cfg.RateLimit.RedisURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("REGISTRY_DATABASE__URL", "")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is required")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Database.URL = "postgres://localhost/registry"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "same ports",
			mutate:  func(c *Config) { c.Server.MetricsPort = c.Server.Port },
			wantErr: "must differ",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "min above max",
			mutate:  func(c *Config) { c.Database.MinConns = 20 },
			wantErr: "min_conns",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimit.Requests = 0 },
			wantErr: "rate_limit.requests",
		},
		{
			name: "zero rate limit when disabled",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = false
				c.RateLimit.Requests = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransformEnv(t *testing.T) {
	key, value := transformEnv("REGISTRY_SERVER__METRICS_PORT", "9100")
	assert.Equal(t, "server.metrics_port", key)
	assert.Equal(t, "9100", value)

	key, value = transformEnv("REGISTRY_CORS__ALLOWED_ORIGINS", "a,b")
	assert.Equal(t, "cors.allowed_origins", key)
	assert.Equal(t, []string{"a", "b"}, value)
}
