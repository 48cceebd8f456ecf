// Package config provides configuration management for the cashbook ledger.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Ledger LedgerConfig
	Debug  bool
}

// LedgerConfig represents ledger storage and defaults.
type LedgerConfig struct {
	// Root is the directory holding the database, chart and exports.
	Root string
	// DBPath overrides the default database location under Root.
	DBPath string
	// ChartPath is the chart-of-accounts YAML used by `cashbook init`.
	ChartPath string
	// ExportDir overrides the default export directory under Root.
	ExportDir string
	// DefaultCurrency is the currency for new accounts and transactions
	// when none is given.
	DefaultCurrency string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Ledger: LedgerConfig{
			Root:            getEnvOrDefault("CASHBOOK_ROOT", "./cashbook"),
			DBPath:          os.Getenv("CASHBOOK_DB_PATH"),
			ChartPath:       os.Getenv("CASHBOOK_CHART_PATH"),
			ExportDir:       os.Getenv("CASHBOOK_EXPORT_DIR"),
			DefaultCurrency: getEnvOrDefault("CASHBOOK_CURRENCY", "USD"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var missing []string
	if c.Ledger.Root == "" {
		missing = append(missing, "ledger.root")
	}
	if c.Ledger.DefaultCurrency == "" {
		missing = append(missing, "ledger.defaultCurrency")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
