package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 90.0, cfg.Thresholds.Line.Warning)
	assert.Equal(t, 100.0, cfg.Thresholds.Line.Critical)
	assert.Equal(t, 80.0, cfg.Thresholds.Stage.Warning)
	assert.Equal(t, 100.0, cfg.Thresholds.Stage.Critical)
	assert.Equal(t, 5.0, cfg.Alerts.FinancialTolerance)
	assert.Equal(t, 7, cfg.Alerts.StaleDays)
	assert.Equal(t, 10.0, cfg.Alerts.DelayPoints)
	assert.Equal(t, 0.01, cfg.Ledger.Epsilon)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "building.yaml")
	content := `
db:
  path: /tmp/obra.db
thresholds:
  line:
    warning: 85
    critical: 95
alerts:
  stale_days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("BUILDING_ALERTS_FINANCIAL_TOLERANCE", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/obra.db", cfg.DB.Path)
	assert.Equal(t, 85.0, cfg.Thresholds.Line.Warning)
	assert.Equal(t, 95.0, cfg.Thresholds.Line.Critical)
	assert.Equal(t, 80.0, cfg.Thresholds.Stage.Warning, "untouched keys keep defaults")
	assert.Equal(t, 14, cfg.Alerts.StaleDays)
	assert.Equal(t, 2.5, cfg.Alerts.FinancialTolerance)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"warning above critical", func(c *Config) { c.Thresholds.Stage.Warning = 120 }, "thresholds.stage.warning"},
		{"negative tolerance", func(c *Config) { c.Alerts.FinancialTolerance = -1 }, "financial_tolerance"},
		{"zero stale days", func(c *Config) { c.Alerts.StaleDays = 0 }, "stale_days"},
		{"empty db path", func(c *Config) { c.DB.Path = "" }, "db.path"},
		{"zero concurrency", func(c *Config) { c.Recompute.Concurrency = 0 }, "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
