// Package config loads engine settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. BUILDING_DB_PATH.
const EnvPrefix = "BUILDING"

// Config is the root configuration.
type Config struct {
	DB         DBConfig         `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Recompute  RecomputeConfig  `mapstructure:"recompute"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ThresholdPair holds the warning and critical consumption percentages.
type ThresholdPair struct {
	Warning  float64 `mapstructure:"warning"`
	Critical float64 `mapstructure:"critical"`
}

type ThresholdsConfig struct {
	Line  ThresholdPair `mapstructure:"line"`
	Stage ThresholdPair `mapstructure:"stage"`
}

type AlertsConfig struct {
	// FinancialTolerance applies when a work has no tolerance of its own.
	FinancialTolerance float64 `mapstructure:"financial_tolerance"`
	// StaleDays applies when a work has no stale window of its own.
	StaleDays   int     `mapstructure:"stale_days"`
	DelayPoints float64 `mapstructure:"delay_points"`
}

type LedgerConfig struct {
	Epsilon float64 `mapstructure:"epsilon"`
}

type RecomputeConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration with the precedence defaults < file < environment.
// An empty path looks for building.yaml in the working directory and
// silently continues when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("building")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static; Unmarshal cannot fail on them.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets configuration fallbacks.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", defaultDBPath())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("thresholds.line.warning", 90.0)
	v.SetDefault("thresholds.line.critical", 100.0)
	v.SetDefault("thresholds.stage.warning", 80.0)
	v.SetDefault("thresholds.stage.critical", 100.0)

	v.SetDefault("alerts.financial_tolerance", 5.0)
	v.SetDefault("alerts.stale_days", 7)
	v.SetDefault("alerts.delay_points", 10.0)

	v.SetDefault("ledger.epsilon", 0.01)

	v.SetDefault("recompute.concurrency", 4)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".building", "building.db")
	}
	return filepath.Join(home, ".building", "building.db")
}

// Validate rejects settings the engine cannot operate with.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	if err := c.Thresholds.Line.validate("thresholds.line"); err != nil {
		return err
	}
	if err := c.Thresholds.Stage.validate("thresholds.stage"); err != nil {
		return err
	}
	if c.Alerts.FinancialTolerance < 0 {
		return fmt.Errorf("alerts.financial_tolerance must not be negative, got %v", c.Alerts.FinancialTolerance)
	}
	if c.Alerts.StaleDays < 1 {
		return fmt.Errorf("alerts.stale_days must be at least 1, got %d", c.Alerts.StaleDays)
	}
	if c.Alerts.DelayPoints < 0 {
		return fmt.Errorf("alerts.delay_points must not be negative, got %v", c.Alerts.DelayPoints)
	}
	if c.Ledger.Epsilon < 0 || c.Ledger.Epsilon >= 1 {
		return fmt.Errorf("ledger.epsilon must be in [0,1), got %v", c.Ledger.Epsilon)
	}
	if c.Recompute.Concurrency < 1 {
		return fmt.Errorf("recompute.concurrency must be at least 1, got %d", c.Recompute.Concurrency)
	}
	return nil
}

func (p ThresholdPair) validate(key string) error {
	if p.Warning < 0 || p.Critical < 0 {
		return fmt.Errorf("%s thresholds must not be negative", key)
	}
	if p.Warning > p.Critical {
		return fmt.Errorf("%s.warning (%v) must not exceed %s.critical (%v)", key, p.Warning, key, p.Critical)
	}
	return nil
}
