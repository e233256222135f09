package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "bracket_session", cfg.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BRACKET_ADDR", "127.0.0.1:9000")
	t.Setenv("BRACKET_DEBUG", "true")
	t.Setenv("BRACKET_SHUTDOWN_TIMEOUT", "250ms")
	t.Setenv("BRACKET_SESSION_TTL", "30m")
	t.Setenv("BRACKET_SWEEP_INTERVAL", "1m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BRACKET_COOKIE_NAME=bracket_test\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BRACKET_COOKIE_NAME") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bracket_test", cfg.CookieName)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("BRACKET_SHUTDOWN_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
