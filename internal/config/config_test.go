package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, key := range []string{
		"BLOG_ENV", "BLOG_LOG_LEVEL", "BLOG_HTTP_ADDR", "BLOG_DB_TYPE", "BLOG_DB_DSN", "DATABASE_URL",
		"BLOG_DB_MAX_OPEN_CONNS", "BLOG_DB_MAX_IDLE_CONNS", "BLOG_DB_SEED", "BLOG_REQUEST_TIMEOUT",
		"BLOG_SHUTDOWN_TIMEOUT", "BLOG_RATE_LIMIT_RPM", "BLOG_CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "blog.db", cfg.Database.DSN)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.False(t, cfg.Database.Seed)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 600, cfg.Security.RateLimitRPM)
	assert.Equal(t, []string{"*"}, cfg.Security.CORSAllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("BLOG_ENV", "prod")
	t.Setenv("BLOG_DB_TYPE", "Postgres")
	t.Setenv("BLOG_DB_DSN", "postgres://blog@localhost/blog")
	t.Setenv("BLOG_DB_SEED", "true")
	t.Setenv("BLOG_RATE_LIMIT_RPM", "0")
	t.Setenv("BLOG_CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("BLOG_REQUEST_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://blog@localhost/blog", cfg.Database.DSN)
	assert.True(t, cfg.Database.Seed)
	assert.Equal(t, 0, cfg.Security.RateLimitRPM)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
}

func TestDatabaseURLFallback(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "legacy.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy.db", cfg.Database.DSN)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("BLOG_HTTP_ADDR=:9999\nBLOG_DB_TYPE=memory\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("BLOG_HTTP_ADDR")
		_ = os.Unsetenv("BLOG_DB_TYPE")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.Database.Type)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown db type", map[string]string{"BLOG_DB_TYPE": "mongo"}},
		{"negative rate limit", map[string]string{"BLOG_RATE_LIMIT_RPM": "-1"}},
		{"negative pool", map[string]string{"BLOG_DB_MAX_OPEN_CONNS": "-2"}},
		{"zero timeout", map[string]string{"BLOG_REQUEST_TIMEOUT": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
