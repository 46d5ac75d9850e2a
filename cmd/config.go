package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aot-advisor/aot-advisor/advisor"
	"github.com/aot-advisor/aot-advisor/advisor/gate"
)

// ThresholdsConfig is the gate-tuning section of the defaults file.
type ThresholdsConfig struct {
	ForceMerge           bool   `yaml:"force_merge"`
	BootImageMerge       bool   `yaml:"boot_image_merge"`
	MinNewMethodsPercent uint32 `yaml:"min_new_methods_percent"`
	MinNewClassesPercent uint32 `yaml:"min_new_classes_percent"`
}

// LedgerConfig is the attempt-ledger section of the defaults file.
type LedgerConfig struct {
	MaxEntries    int `yaml:"max_entries"`
	LockTimeoutMs int `yaml:"lock_timeout_ms"`
}

// Config represents the full defaults file structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Ledger     LedgerConfig     `yaml:"ledger"`
}

// defaultConfig returns the built-in defaults used when no config file is given.
func defaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdsConfig{
			MinNewMethodsPercent: 20,
			MinNewClassesPercent: 20,
		},
		Ledger: LedgerConfig{
			MaxEntries: advisor.DefaultMaxEntries,
		},
	}
}

// loadConfig reads a YAML defaults file with strict field checking, or the
// built-in defaults when path is empty.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all fields in the config are usable.
func (c *Config) Validate() error {
	if c.Thresholds.MinNewMethodsPercent > 100 {
		return fmt.Errorf("thresholds.min_new_methods_percent must be in [0, 100], got %d", c.Thresholds.MinNewMethodsPercent)
	}
	if c.Thresholds.MinNewClassesPercent > 100 {
		return fmt.Errorf("thresholds.min_new_classes_percent must be in [0, 100], got %d", c.Thresholds.MinNewClassesPercent)
	}
	if c.Ledger.MaxEntries < 1 {
		return fmt.Errorf("ledger.max_entries must be positive, got %d", c.Ledger.MaxEntries)
	}
	if c.Ledger.LockTimeoutMs < 0 {
		return fmt.Errorf("ledger.lock_timeout_ms must be non-negative, got %d", c.Ledger.LockTimeoutMs)
	}
	return nil
}

// GateOptions converts the thresholds section into gate options.
func (c *Config) GateOptions() gate.Options {
	return gate.Options{
		ForceMerge:           c.Thresholds.ForceMerge,
		BootImageMerge:       c.Thresholds.BootImageMerge,
		MinNewMethodsPercent: c.Thresholds.MinNewMethodsPercent,
		MinNewClassesPercent: c.Thresholds.MinNewClassesPercent,
	}
}

// LockTimeout returns the configured advisory-lock timeout.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Ledger.LockTimeoutMs) * time.Millisecond
}
