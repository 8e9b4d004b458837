package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "localhost:3000", cfg.Server.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "schemas.yaml", cfg.Schema.Path)
	assert.Equal(t, "pk", cfg.Filter.PKAlias)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 0, cfg.Server.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
	assert.False(t, cfg.Server.RateLimit.TrustProxy)
	assert.False(t, cfg.Server.Auth.Enabled())
	assert.Equal(t, "drest", cfg.Server.Auth.Issuer)
	assert.True(t, cfg.Server.Live.Enabled)
	assert.Empty(t, cfg.Server.Live.AllowedOrigins)
	assert.Empty(t, cfg.Server.Pprof.Addr)

	level, err := cfg.Log.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
server:
  port: 8080
  host: 0.0.0.0
  rate_limit:
    requests: 60
    window: 30s
    trust_proxy: true
  live:
    enabled: false
    allowed_origins:
      - https://app.example
schema:
  path: defs/schemas.yaml
filter:
  pk_alias: id
cache:
  backend: redis
  ttl: 30s
  redis:
    addr: redis:6379
    db: 2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drest.yaml"), []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, RateLimitConfig{Requests: 60, Window: 30 * time.Second, TrustProxy: true}, cfg.Server.RateLimit)
	assert.Equal(t, LiveConfig{Enabled: false, AllowedOrigins: []string{"https://app.example"}}, cfg.Server.Live)
	assert.Equal(t, "defs/schemas.yaml", cfg.Schema.Path)
	assert.Equal(t, "id", cfg.Filter.PKAlias)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DREST_SERVER_PORT", "4000")
	t.Setenv("DREST_CACHE_BACKEND", "none")
	t.Setenv("DREST_FILTER_PK_ALIAS", "uuid")
	t.Setenv("DREST_SERVER_RATE_LIMIT_REQUESTS", "10")
	t.Setenv("DREST_SERVER_AUTH_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Server.RateLimit.Requests)
	assert.True(t, cfg.Server.Auth.Enabled())
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, "uuid", cfg.Filter.PKAlias)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"DREST_SERVER_PORT": "70000"}},
		{"unknown cache backend", map[string]string{"DREST_CACHE_BACKEND": "memcached"}},
		{"unknown log level", map[string]string{"DREST_LOG_LEVEL": "loud"}},
		{"negative rate limit", map[string]string{"DREST_SERVER_RATE_LIMIT_REQUESTS": "-1"}},
		{"rate limit without window", map[string]string{"DREST_SERVER_RATE_LIMIT_REQUESTS": "5", "DREST_SERVER_RATE_LIMIT_WINDOW": "0s"}},
		{"pk alias with separator", map[string]string{"DREST_FILTER_PK_ALIAS": "a.b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drest.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "examples", "drest.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Server.RateLimit.Requests)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.Live.AllowedOrigins)
	assert.Equal(t, "examples/schemas.yaml", cfg.Schema.Path)
	assert.False(t, cfg.Server.Auth.Enabled())
}
