package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL            string
	LogLevel               string
	Environment            string
	CronSpecDailyReminders string // Daily reminder generation across all merchants
	CronSpecOutboxDispatch string // Frequent draining of the outbound notification outbox
	OutboxBatchSize        int
	TelegramToken          string // Optional: enables the admin run-summary notifier
	AdminTelegramID        int64  // Optional: chat that receives run summaries
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

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecDailyReminders = os.Getenv("CRON_SPEC_DAILY_REMINDERS")
	if cfg.CronSpecDailyReminders == "" {
		cfg.CronSpecDailyReminders = "0 8 * * *" // Default: 08:00 daily
	}

	cfg.CronSpecOutboxDispatch = os.Getenv("CRON_SPEC_OUTBOX_DISPATCH")
	if cfg.CronSpecOutboxDispatch == "" {
		cfg.CronSpecOutboxDispatch = "* * * * *" // Default: every minute
	}

	batchStr := os.Getenv("OUTBOX_BATCH_SIZE")
	if batchStr == "" {
		cfg.OutboxBatchSize = 100
	} else {
		batch, err := strconv.Atoi(batchStr)
		if err != nil || batch <= 0 {
			return nil, fmt.Errorf("invalid OUTBOX_BATCH_SIZE: %q", batchStr)
		}
		cfg.OutboxBatchSize = batch
	}

	// The Telegram notifier is optional: leave both unset to disable it.
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr != "" {
		adminID, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.AdminTelegramID = adminID
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be set when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}
