// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/warp/cpq-engine/internal/logging"
	"github.com/warp/cpq-engine/pricing"
)

// Config is the main application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Storage contains persistence configuration
	Storage StorageConfig `json:"storage"`

	// Catalog contains catalog source configuration
	Catalog CatalogConfig `json:"catalog"`

	// Pricing contains pricing engine configuration
	Pricing PricingConfig `json:"pricing"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Port is the listening port
	Port int `json:"port"`

	// CORSOrigins are the allowed browser origins
	CORSOrigins []string `json:"cors_origins"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// DatabasePath is the SQLite database file. Empty keeps everything in memory.
	DatabasePath string `json:"database_path"`
}

// CatalogConfig contains catalog settings
type CatalogConfig struct {
	// Path is a JSON or YAML catalog document loaded at startup.
	// Empty loads the built-in demo catalog.
	Path string `json:"path,omitempty"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// PreferredCurrency is the currency picked from a charge's pricing list
	PreferredCurrency string `json:"preferred_currency"`

	// PerUnitUOMs are the plan units of measure that get a per-unit cost
	PerUnitUOMs []string `json:"per_unit_uoms"`
}

// Engine converts the settings into an engine configuration.
func (p PricingConfig) Engine() pricing.Config {
	return pricing.Config{
		PreferredCurrency: p.PreferredCurrency,
		PerUnitUOMs:       append([]string(nil), p.PerUnitUOMs...),
	}
}

// Default returns a default configuration
func Default() *Config {
	engine := pricing.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Storage: StorageConfig{
			DatabasePath: "./cpq.db",
		},
		Pricing: PricingConfig{
			PreferredCurrency: engine.PreferredCurrency,
			PerUnitUOMs:       engine.PerUnitUOMs,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
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

// =============================================================================
// ENVIRONMENT OVERLAY
// =============================================================================

// Environment variables read by ApplyEnv.
const (
	EnvPort        = "CPQ_PORT"
	EnvDBPath      = "CPQ_DB_PATH"
	EnvCORSOrigins = "CPQ_CORS_ORIGINS"
	EnvCatalog     = "CPQ_CATALOG"
	EnvCurrency    = "CPQ_CURRENCY"
	EnvPerUnitUOMs = "CPQ_PER_UNIT_UOMS"
	EnvLogLevel    = "CPQ_LOG_LEVEL"
	EnvLogFormat   = "CPQ_LOG_FORMAT"
	EnvLogOutput   = "CPQ_LOG_OUTPUT"
)

// LoadEnvFiles loads .env files into the process environment. Missing files
// are skipped; variables already set are not overridden.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays CPQ_* environment variables on the configuration.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv(EnvCatalog); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv(EnvCurrency); v != "" {
		c.Pricing.PreferredCurrency = strings.ToUpper(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvPerUnitUOMs); v != "" {
		c.Pricing.PerUnitUOMs = splitList(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvLogOutput); v != "" {
		c.Logging.Output = v
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Pricing.PreferredCurrency == "" {
		return fmt.Errorf("pricing preferred currency is required")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
