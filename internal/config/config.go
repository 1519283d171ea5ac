// Package config loads and persists clvcast TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all clvcast configuration.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Economics EconomicsConfig `toml:"economics"`
}

// DataConfig names the input tables and the observation windows.
type DataConfig struct {
	CalibrationFile  string `toml:"calibration_file"`
	HoldoutFile      string `toml:"holdout_file"`
	CalibrationStart int    `toml:"calibration_start"`
	CalibrationEnd   int    `toml:"calibration_end"`
	HoldoutStart     int    `toml:"holdout_start"`
	HoldoutEnd       int    `toml:"holdout_end"`
}

// EconomicsConfig holds the valuation constants.
type EconomicsConfig struct {
	DiscountRate  float64 `toml:"discount_rate"`
	MarginPerTrip float64 `toml:"margin_per_trip"`
	CohortSize    int     `toml:"cohort_size"`
}

// DefaultConfig returns the default configuration: the 2010-2018 annual
// windows with a 5-year calibration split.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			CalibrationFile:  "data/calibration.txt",
			HoldoutFile:      "data/holdout.txt",
			CalibrationStart: 2010,
			CalibrationEnd:   2014,
			HoldoutStart:     2015,
			HoldoutEnd:       2018,
		},
		Economics: EconomicsConfig{
			DiscountRate:  0.13,
			MarginPerTrip: 250,
			CohortSize:    10000,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "clvcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "clvcast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Save writes the config to path, or the default location when path is
// empty, so a --config override round-trips through setup.
func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Validate rejects configurations the pipeline cannot use.
func (c Config) Validate() error {
	d := c.Data
	if d.CalibrationEnd < d.CalibrationStart {
		return fmt.Errorf("calibration window %d-%d is empty", d.CalibrationStart, d.CalibrationEnd)
	}
	if d.HoldoutEnd < d.HoldoutStart {
		return fmt.Errorf("holdout window %d-%d is empty", d.HoldoutStart, d.HoldoutEnd)
	}
	if d.HoldoutStart != d.CalibrationEnd+1 {
		return fmt.Errorf("holdout window must start the year after calibration ends")
	}
	if c.Economics.DiscountRate <= 0 {
		return fmt.Errorf("discount_rate must be positive")
	}
	if c.Economics.CohortSize <= 0 {
		return fmt.Errorf("cohort_size must be positive")
	}
	return nil
}

// Exists returns true if a config file exists at the default location.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
