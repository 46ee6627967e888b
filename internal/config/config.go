package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget/internal/log"

	"github.com/Rhymond/go-money"
)

type Config struct {
	// Ledger
	LedgerPath string

	// Logging
	LogLevel string

	// SQLite mirror, disabled when empty
	SQLiteDBPath string

	// AMQP, disabled when empty
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	PublishTimeout time.Duration

	// Reports
	Currency string
}

func Load() *Config {
	cfg := &Config{
		LedgerPath: getEnv("LEDGER_PATH", "transactions.csv"),
		LogLevel:   getEnv("LOG_LEVEL", "warn"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "transactions"),
		PublishTimeout: getEnvDuration("PUBLISH_TIMEOUT", 5*time.Second),

		Currency: strings.ToUpper(getEnv("CURRENCY", "")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.LedgerPath) == "" {
		errors = append(errors, "ledger path cannot be empty")
	} else if info, err := os.Stat(c.LedgerPath); err == nil && info.IsDir() {
		errors = append(errors, fmt.Sprintf("ledger path '%s' is a directory", c.LedgerPath))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Check if the SQLite directory exists or can be created
	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PublishTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid publish timeout %v: must be at least 100ms", c.PublishTimeout))
	} else if c.PublishTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid publish timeout %v: must be at most 1m", c.PublishTimeout))
	}

	if c.Currency != "" && money.GetCurrency(c.Currency) == nil {
		errors = append(errors, fmt.Sprintf("unknown currency '%s'", c.Currency))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// MirrorEnabled reports whether transactions are copied to SQLite.
func (c *Config) MirrorEnabled() bool { return c.SQLiteDBPath != "" }

// PublishEnabled reports whether transactions are announced over AMQP.
func (c *Config) PublishEnabled() bool { return c.AMQPURL != "" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
