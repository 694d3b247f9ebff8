// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	opts, err := cfg.Matching.ToOptions()
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

// Config represents the entire application configuration
type Config struct {
	Matching      MatchingConfig      `yaml:"matching"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// MatchingConfig holds the default linking options
type MatchingConfig struct {
	PastWindow         int      `yaml:"past_window"`
	FutureWindow       int      `yaml:"future_window"`
	MinAmountDelta     float64  `yaml:"min_amount_delta"`
	MaxAmountDelta     float64  `yaml:"max_amount_delta"`
	DeltaMode          string   `yaml:"delta_mode"` // percent or absolute
	AllowUncategorized bool     `yaml:"allow_uncategorized"`
	Identifiers        []string `yaml:"identifiers"`
	IdentifierDistance int      `yaml:"identifier_distance"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	Driver       string `yaml:"driver"` // sqlite3 or postgres
	DatabasePath string `yaml:"database_path"`
	DSN          string `yaml:"dsn"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, text or json
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	defaults := matcher.DefaultOptions()
	return &Config{
		Matching: MatchingConfig{
			PastWindow:         defaults.PastWindow,
			FutureWindow:       defaults.FutureWindow,
			MinAmountDelta:     defaults.MinAmountDelta.InexactFloat64(),
			MaxAmountDelta:     defaults.MaxAmountDelta.InexactFloat64(),
			DeltaMode:          string(defaults.DeltaMode),
			IdentifierDistance: defaults.IdentifierDistance,
		},
		Storage: StorageConfig{
			Driver:       "sqlite3",
			DatabasePath: "bill_linker.db",
		},
		Server: ServerConfig{
			Port:           8085,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "console",
			},
		},
	}
}

// Load reads and parses the config file. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LINKER_DATABASE_URL})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Default()
	m := &cfg.Matching

	m.PastWindow = getEnvInt("LINKER_PAST_WINDOW", m.PastWindow)
	m.FutureWindow = getEnvInt("LINKER_FUTURE_WINDOW", m.FutureWindow)
	m.MinAmountDelta = getEnvFloat("LINKER_MIN_AMOUNT_DELTA", m.MinAmountDelta)
	m.MaxAmountDelta = getEnvFloat("LINKER_MAX_AMOUNT_DELTA", m.MaxAmountDelta)
	m.DeltaMode = getEnv("LINKER_DELTA_MODE", m.DeltaMode)
	m.AllowUncategorized = getEnvBool("LINKER_ALLOW_UNCATEGORIZED", m.AllowUncategorized)
	m.Identifiers = getEnvList("LINKER_IDENTIFIERS", m.Identifiers)
	m.IdentifierDistance = getEnvInt("LINKER_IDENTIFIER_DISTANCE", m.IdentifierDistance)

	cfg.Storage.Driver = getEnv("LINKER_DB_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DatabasePath = getEnv("LINKER_DB_PATH", cfg.Storage.DatabasePath)
	cfg.Storage.DSN = getEnv("LINKER_DATABASE_URL", cfg.Storage.DSN)

	cfg.Server.Port = getEnvInt("LINKER_PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = getEnvList("LINKER_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// ToOptions converts the matching section into validated matcher options.
func (m MatchingConfig) ToOptions() (matcher.Options, error) {
	opts := matcher.Options{
		PastWindow:         m.PastWindow,
		FutureWindow:       m.FutureWindow,
		MinAmountDelta:     decimal.NewFromFloat(m.MinAmountDelta),
		MaxAmountDelta:     decimal.NewFromFloat(m.MaxAmountDelta),
		DeltaMode:          matcher.DeltaMode(strings.ToLower(m.DeltaMode)),
		AllowUncategorized: m.AllowUncategorized,
		Identifiers:        m.Identifiers,
		IdentifierDistance: m.IdentifierDistance,
	}
	if opts.DeltaMode == "" {
		opts.DeltaMode = matcher.DeltaPercent
	}
	if err := opts.Validate(); err != nil {
		return matcher.Options{}, fmt.Errorf("invalid matching config: %w", err)
	}
	return opts, nil
}

// DataSource returns the driver and data source name to open.
func (s StorageConfig) DataSource() (driver, dsn string) {
	driver = s.Driver
	if driver == "" {
		driver = "sqlite3"
	}
	if driver == "postgres" {
		return driver, s.DSN
	}
	if s.DSN != "" {
		return driver, s.DSN
	}
	return driver, s.DatabasePath
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
