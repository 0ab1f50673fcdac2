// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/log"
)

// Supported values of DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port               string
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DataDir      string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL            string
	AMQPExchange       string
	AMQPRoutingKey     string
	AMQPConnectRetries int

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		DataDir:      getEnv("DATA_DIR", ""),

		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPRoutingKey:     getEnv("AMQP_ROUTING_KEY", "ledger.changed"),
		AMQPConnectRetries: getEnvInt("AMQP_CONNECT_RETRIES", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == BackendMemory && c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory '%s' does not exist", c.DataDir))
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
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
		if c.AMQPConnectRetries < 1 {
			errors = append(errors, fmt.Sprintf("invalid AMQP connect retries %d: must be at least 1", c.AMQPConnectRetries))
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 5 minutes", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether commit events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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
