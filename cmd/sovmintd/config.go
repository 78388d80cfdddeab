// config.go - Daemon configuration: YAML file with environment overrides.
package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// GovernorConfig declares one committee member. PubKey is the hex-encoded
// compressed BN254 G1 public-key share (32 bytes).
type GovernorConfig struct {
	Addr   string `yaml:"addr"`
	PubKey string `yaml:"pubkey"`
}

// LicenseConfig declares one minter's policy.
type LicenseConfig struct {
	Minter     string `yaml:"minter"`
	Pubkey     string `yaml:"pubkey"`
	DailyLimit uint64 `yaml:"daily_limit"`
}

// RateLimitConfig bounds submissions per minter.
type RateLimitConfig struct {
	MaxTokens       int `yaml:"max_tokens" envconfig:"RATE_MAX_TOKENS"`
	RefillRate      int `yaml:"refill_rate" envconfig:"RATE_REFILL_RATE"`
	RefillPeriodSec int `yaml:"refill_period_sec" envconfig:"RATE_REFILL_PERIOD_SEC"`
}

// Config is the daemon configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	LogLevel   string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFile    string `yaml:"log_file" envconfig:"LOG_FILE"`
	KeyDir     string `yaml:"key_dir" envconfig:"KEY_DIR"`
	LedgerPath string `yaml:"ledger_path" envconfig:"LEDGER_PATH"`

	Epoch     uint64           `yaml:"epoch" envconfig:"EPOCH"`
	Threshold int              `yaml:"threshold" envconfig:"THRESHOLD"`
	Governors []GovernorConfig `yaml:"governors"`
	Licenses  []LicenseConfig  `yaml:"licenses"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8420",
		LogLevel:   "info",
		KeyDir:     "keys",
		LedgerPath: "mint_ledger.json",
		Threshold:  4,
		RateLimit: RateLimitConfig{
			MaxTokens:       10,
			RefillRate:      1,
			RefillPeriodSec: 1,
		},
	}
}

// LoadConfig reads the YAML file (when present) and applies SOVMINT_*
// environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := envconfig.Process("sovmint", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants that are fatal at startup.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	if len(c.Governors) == 0 {
		return fmt.Errorf("at least one governor is required")
	}
	if len(c.Governors) > 6 {
		return fmt.Errorf("at most 6 governors are supported, got %d", len(c.Governors))
	}
	if c.Threshold <= 0 || c.Threshold > len(c.Governors) {
		return fmt.Errorf("threshold %d invalid for %d governors", c.Threshold, len(c.Governors))
	}
	if c.RateLimit.MaxTokens <= 0 || c.RateLimit.RefillRate <= 0 || c.RateLimit.RefillPeriodSec <= 0 {
		return fmt.Errorf("rate limit parameters must be positive")
	}
	return nil
}
