package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/herbscan-dashboard/services/dashboard/herbscan"
)

var configEnv = []string{
	"HERBSCAN_API_BASE_URL", "PORT", "DASHBOARD_PORT", "HERBSCAN_REQUEST_TIMEOUT",
	"DASHBOARD_TIMEZONE", "DASHBOARD_RECENT_LIMIT", "LOG_LEVEL", "DATABASE_URL", "API_BEARER_TOKEN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, herbscan.DefaultBaseURL, cfg.APIBaseURL)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 5, cfg.RecentLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HERBSCAN_API_BASE_URL", "http://localhost:9000")
	t.Setenv("DASHBOARD_PORT", "9090")
	t.Setenv("HERBSCAN_REQUEST_TIMEOUT", "3s")
	t.Setenv("DASHBOARD_TIMEZONE", "Asia/Kolkata")
	t.Setenv("DASHBOARD_RECENT_LIMIT", "10")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DATABASE_URL", "postgres://localhost/herbscan")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.APIBaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, 10, cfg.RecentLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/herbscan", cfg.DatabaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"PORT":                     "-1",
		"HERBSCAN_REQUEST_TIMEOUT": "soon",
		"DASHBOARD_TIMEZONE":       "Mars/Olympus",
		"DASHBOARD_RECENT_LIMIT":   "0",
		"LOG_LEVEL":                "loud",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
