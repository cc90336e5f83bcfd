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
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, 24*time.Hour, cfg.Scoring.Cooldown)
	assert.Equal(t, 3, cfg.Scoring.TrendRecentDays)
	assert.Equal(t, 14, cfg.Scoring.TrendBaselineDays)
	assert.False(t, cfg.Graph.Enabled)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := `
listen_addr: ":9000"
database:
  dsn: postgres://app@db/keepsake
  max_conns: 20
graph:
  enabled: true
  addr: graph:6379
scoring:
  cooldown: 30m
  trend_recent_days: 3
  trend_baseline_days: 14
  week_window_days: 7
  month_window_days: 30
  year_window_days: 365
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "postgres://app@db/keepsake", cfg.Database.DSN)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.True(t, cfg.Graph.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Scoring.Cooldown)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEEPSAKE_LISTEN_ADDR", ":7777")
	t.Setenv("KEEPSAKE_SCORE_COOLDOWN", "1h")
	t.Setenv("KEEPSAKE_GRAPH_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, time.Hour, cfg.Scoring.Cooldown)
	assert.True(t, cfg.Graph.Enabled)
}
