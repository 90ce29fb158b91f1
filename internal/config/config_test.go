package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RTMS_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.SourceURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 85.0, cfg.AlertThreshold)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.FilterDebounce)
	assert.Equal(t, filepath.Join(cfg.DataDir, "reports"), cfg.ReportDir)
}

func TestLoadOverrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("RTMS_DATA_DIR", dataDir)
	t.Setenv("RTMS_PORT", "9000")
	t.Setenv("RTMS_SOURCE_URL", "http://feed.internal:8080")
	t.Setenv("ALERT_THRESHOLD", "80")
	t.Setenv("REFRESH_INTERVAL_MINUTES", "5")
	t.Setenv("FILTER_DEBOUNCE_MS", "150")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "http://feed.internal:8080", cfg.SourceURL)
	assert.Equal(t, 80.0, cfg.AlertThreshold)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 150*time.Millisecond, cfg.FilterDebounce)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalidThreshold(t *testing.T) {
	t.Setenv("RTMS_DATA_DIR", t.TempDir())
	t.Setenv("ALERT_THRESHOLD", "150")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidRefreshInterval(t *testing.T) {
	t.Setenv("RTMS_DATA_DIR", t.TempDir())
	t.Setenv("REFRESH_INTERVAL_MINUTES", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("RTMS_DATA_DIR", dataDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "cache.db"), cfg.DatabasePath("cache"))
}
