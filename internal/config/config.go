package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"orderdesk/internal/logger"
)

type Config struct {
	// Order service
	APIURL      string
	HTTPTimeout time.Duration

	// Job polling
	PollInterval    time.Duration
	PollMaxAttempts int

	// Tax policy applied when recalculating edited orders
	TaxRate float64

	// Google Sheets export
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		APIURL:               getEnv("ORDERDESK_API_URL", "http://localhost:5001"),
		HTTPTimeout:          getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		PollInterval:         getEnvAsDuration("POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts:      getEnvAsInt("POLL_MAX_ATTEMPTS", 30),
		TaxRate:              getEnvAsFloat("TAX_RATE", 0.10),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Orders"),
		LogLevel:             getEnv("LOG_LEVEL", "warn"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default is the configuration used when the environment is unusable.
func Default() *Config {
	return &Config{
		APIURL:               "http://localhost:5001",
		HTTPTimeout:          30 * time.Second,
		PollInterval:         2 * time.Second,
		PollMaxAttempts:      30,
		TaxRate:              0.10,
		GoogleSheetWorksheet: "Orders",
		LogLevel:             "warn",
		LogFormat:            "console",
		LogTimeFormat:        time.RFC3339,
		LogOutput:            "stderr",
	}
}

func (c *Config) validate() error {
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ORDERDESK_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PollMaxAttempts <= 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("TAX_RATE must be a fraction between 0 and 1, got %v", c.TaxRate)
	}
	return nil
}

// PollTimeout is the effective job timeout: attempts times interval.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.PollMaxAttempts) * c.PollInterval
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("2s") or plain milliseconds ("2000").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
