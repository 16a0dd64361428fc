package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lucid.sock", cfg.Socket.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, uint32(1344), cfg.Strategist.Interval)
	assert.Equal(t, uint32(1), cfg.Plan.TickInterval)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, rules.DefaultDoctrine(), cfg.Macro)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "lucid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
socket:
  path: /run/lucid.sock
logging:
  level: debug
  format: json
plan:
  default: terran-beginner
macro:
  supply_buffer: 4
  gas_ratio: 3
`), 0o644))
	t.Setenv("LUCID_LOGGING_LEVEL", "warn")
	t.Setenv("LUCID_METRICS_ENABLED", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/run/lucid.sock", cfg.Socket.Path)
	assert.Equal(t, "warn", cfg.Logging.Level, "environment wins over the file")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "terran-beginner", cfg.Plan.Default)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 4, cfg.Macro.SupplyBuffer)
	assert.InDelta(t, 3.0, cfg.Macro.GasRatio, 1e-9)
	assert.InDelta(t, 16.0/6.0, cfg.Macro.WorkerGasRatio, 1e-9, "unset doctrine fields are clamped to defaults")
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("LUCID_LOGGING_LEVEL", "loud")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "Level")
}

func TestValidateJournal(t *testing.T) {
	cfg := Default()
	cfg.Journal.Type = "postgres"
	assert.ErrorContains(t, ValidateConfig(cfg), "URL")

	cfg.Journal.URL = "postgres://lucid@localhost/lucid"
	assert.NoError(t, ValidateConfig(cfg))

	cfg.Logging.Output = "file"
	assert.ErrorContains(t, ValidateConfig(cfg), "FilePath")
}
