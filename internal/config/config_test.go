package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults ensures an empty environment yields the documented defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, "sent", cfg.Scheduler.BulkStatus)
	assert.Equal(t, "mailcadence", filepath.Base(cfg.Psql.Addr.Path))
}

// TestLoadReadsEnvironment ensures every section is populated from environment variables.
func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REDIS_LOCK_WAIT", "3s")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("SCHEDULER_CONCURRENCY", "8")
	t.Setenv("PSQL_MAX_CONNS", "16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(9090), cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 3*time.Second, cfg.Redis.LockWait)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 8, cfg.Scheduler.Concurrency)
	assert.Equal(t, int32(16), cfg.Psql.MaxConns)
}

// TestLoadDotenvDoesNotOverrideEnvironment ensures values from a .env file never shadow the real environment.
func TestLoadDotenvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nHTTP_PORT=7070\n"), 0o600))
	t.Setenv("HTTP_PORT", "9091")
	t.Cleanup(func() { _ = os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint16(9091), cfg.HTTP.Port)
}

// TestLoadRejectsBadScheduler ensures invalid scheduler settings fail loading.
func TestLoadRejectsBadScheduler(t *testing.T) {
	t.Setenv("SCHEDULER_BULK_SPEC", "every tuesday")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SCHEDULER_BULK_SPEC", "0 2 * * 1")
	t.Setenv("SCHEDULER_BULK_STATUS", "shredded")
	_, err = Load()
	assert.Error(t, err)
}
