package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL      string
	HTTPAddr         string
	LogLevel         string
	Environment      string
	BusinessTimezone string         // IANA name, e.g. "Asia/Kolkata"
	BusinessLocation *time.Location // loaded from BusinessTimezone
	CronSpecMonthly  string         // monthly log regeneration
	CronSpecDaily    string         // daily completion sweep
	CronAuthToken    string         // shared token for the HTTP cron trigger
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.BusinessTimezone = os.Getenv("BUSINESS_TIMEZONE")
	if cfg.BusinessTimezone == "" {
		cfg.BusinessTimezone = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}
	cfg.BusinessLocation = loc

	cfg.CronSpecMonthly = os.Getenv("CRON_SPEC_MONTHLY")
	if cfg.CronSpecMonthly == "" {
		cfg.CronSpecMonthly = "10 0 1 * *" // 00:10 on the 1st of each month
	}

	cfg.CronSpecDaily = os.Getenv("CRON_SPEC_DAILY")
	if cfg.CronSpecDaily == "" {
		cfg.CronSpecDaily = "35 18 * * *" // 18:35 daily, after the delivery slot
	}

	cfg.CronAuthToken = os.Getenv("CRON_AUTH_TOKEN")
	if cfg.CronAuthToken == "" {
		return nil, fmt.Errorf("CRON_AUTH_TOKEN is not set")
	}

	return cfg, nil
}
