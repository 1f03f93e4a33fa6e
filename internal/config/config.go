package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment key, e.g. FINTRACK_DB_PATH.
const Prefix = "FINTRACK"

type Config struct {
	// Database
	DBPath string `envconfig:"DB_PATH" default:"./data/fintrack.db"`

	// AMQP; milestone events are not published when AMQPURL is empty.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"fintrack"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"goal_milestones"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Dashboard cache
	CacheSize int           `envconfig:"CACHE_SIZE" default:"256"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	// Output
	ChartDir string `envconfig:"CHART_DIR" default:"./charts"`
	Currency string `envconfig:"CURRENCY" default:"INR"`

	// Google Sheets export
	SpreadsheetID      string `envconfig:"SPREADSHEET_ID"`
	ServiceAccountFile string `envconfig:"SERVICE_ACCOUNT_FILE"`
}

// Load reads an optional .env file and decodes FINTRACK_* variables.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	} else if c.CacheTTL > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at most 24 hours", c.CacheTTL))
	}

	if _, ok := core.LookupCurrency(c.Currency); !ok {
		errs = append(errs, fmt.Sprintf("unsupported currency '%s': must be one of %s", c.Currency, currencyCodes()))
	}

	if c.ServiceAccountFile != "" {
		if _, err := os.Stat(c.ServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("service account file does not exist: %s", c.ServiceAccountFile))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// SheetsEnabled reports whether both Sheets export settings are present.
func (c *Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.ServiceAccountFile != ""
}

// DisplayCurrency returns the configured currency, defaulting to INR.
func (c *Config) DisplayCurrency() core.Currency {
	if cur, ok := core.LookupCurrency(c.Currency); ok {
		return cur
	}
	return core.Currencies[0]
}

func currencyCodes() string {
	codes := make([]string, len(core.Currencies))
	for i, cur := range core.Currencies {
		codes[i] = cur.Code
	}
	return strings.Join(codes, ", ")
}
