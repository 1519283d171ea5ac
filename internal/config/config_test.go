package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Data.CalibrationStart != 2010 || cfg.Data.HoldoutEnd != 2018 {
		t.Errorf("defaults not applied: %+v", cfg.Data)
	}
	if cfg.Economics.DiscountRate != 0.13 {
		t.Errorf("DiscountRate = %v, want 0.13", cfg.Economics.DiscountRate)
	}
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[economics]
discount_rate = 0.10
margin_per_trip = 400.0
cohort_size = 5000
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Economics.DiscountRate != 0.10 || cfg.Economics.CohortSize != 5000 {
		t.Errorf("override not applied: %+v", cfg.Economics)
	}
	// Unspecified sections keep their defaults.
	if cfg.Data.CalibrationFile != "data/calibration.txt" {
		t.Errorf("CalibrationFile = %q, want default", cfg.Data.CalibrationFile)
	}
}

func TestSave_ExplicitPathRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Economics.DiscountRate = 0.08
	cfg.Data.CalibrationFile = "elsewhere/cal.txt"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The file lands at the given path, not the default location.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written to %s: %v", path, err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Economics.DiscountRate != 0.08 {
		t.Errorf("DiscountRate = %v, want 0.08", got.Economics.DiscountRate)
	}
	if got.Data.CalibrationFile != "elsewhere/cal.txt" {
		t.Errorf("CalibrationFile = %q, want elsewhere/cal.txt", got.Data.CalibrationFile)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gap between windows", func(c *Config) { c.Data.HoldoutStart = 2016 }},
		{"empty calibration", func(c *Config) { c.Data.CalibrationEnd = 2009 }},
		{"zero discount", func(c *Config) { c.Economics.DiscountRate = 0 }},
		{"zero cohort", func(c *Config) { c.Economics.CohortSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
