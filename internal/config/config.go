// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"bundle-pricing/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing computation settings
	Pricing PricingConfig `json:"pricing"`

	// Rules contains rule repository settings
	Rules RulesConfig `json:"rules"`

	// Catalog contains bundle catalog settings
	Catalog CatalogConfig `json:"catalog"`

	// Fees contains processing fee settings
	Fees FeesConfig `json:"fees"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing computation settings
type PricingConfig struct {
	// DefaultCurrency is the currency reported in breakdowns
	DefaultCurrency string `json:"default_currency"`

	// FlatMarkup is the markup applied when no matrix entry matches
	// and a markup event carries no explicit amount
	FlatMarkup float64 `json:"flat_markup"`

	// MinProfit is the minimum profit enforced by the profit constraint
	MinProfit float64 `json:"min_profit"`

	// UnusedDaysRefundFactor is the pro-rated refund share for unused days
	UnusedDaysRefundFactor float64 `json:"unused_days_refund_factor"`

	// RoundingStrategy is the psychological rounding strategy
	RoundingStrategy string `json:"rounding_strategy"`

	// RegionRoundingOffset is the fractional offset for region rounding (e.g. 0.99)
	RegionRoundingOffset float64 `json:"region_rounding_offset"`

	// MarkupPath is the markup matrix file
	MarkupPath string `json:"markup_path"`
}

// RulesConfig contains rule repository settings
type RulesConfig struct {
	// Directory is the directory holding rule and strategy files
	Directory string `json:"directory"`

	// DefaultStrategy is the strategy used when a request names none
	DefaultStrategy string `json:"default_strategy,omitempty"`

	// CacheTTLSeconds is the soft TTL of the rule cache
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
}

// CatalogConfig contains bundle catalog settings
type CatalogConfig struct {
	// Path is the catalog fixture file
	Path string `json:"path"`

	// PreferredProviders is the provider preference order, best first
	PreferredProviders []string `json:"preferred_providers,omitempty"`
}

// FeesConfig contains processing fee settings
type FeesConfig struct {
	// Path is the fee matrix file
	Path string `json:"path"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".bundle-pricing")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			DefaultCurrency:        "USD",
			FlatMarkup:             0,
			MinProfit:              0,
			UnusedDaysRefundFactor: 0.5,
			RoundingStrategy:       "nearest-whole",
			RegionRoundingOffset:   0.99,
			MarkupPath:             filepath.Join(baseDir, "markup.yaml"),
		},
		Rules: RulesConfig{
			Directory:       filepath.Join(baseDir, "rules"),
			CacheTTLSeconds: 60,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(baseDir, "catalog.yaml"),
		},
		Fees: FeesConfig{
			Path: filepath.Join(baseDir, "fees.yaml"),
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
