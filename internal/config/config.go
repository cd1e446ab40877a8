package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL     string
	TelegramToken   string
	TelegramOwnerID int64
	BackupDir       string
	BackupInterval  time.Duration
	BackupAt        string // HH:MM, takes precedence over BackupInterval
	BackupKeep      int
	LogLevel        string
	LogFile         string
}

// Load reads configuration from environment variables with sane defaults.
// Values from the given .env files (or ./.env when none are given) are
// applied first; variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		BackupDir:      strings.TrimSpace(os.Getenv("BACKUP_DIR")),
		BackupInterval: parseInterval(strings.TrimSpace(os.Getenv("BACKUP_INTERVAL_HOURS"))),
		BackupAt:       strings.TrimSpace(os.Getenv("BACKUP_AT")),
		LogLevel:       strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		LogFile:        strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "weekly_planner.db"
	}

	if cfg.BackupDir == "" {
		cfg.BackupDir = "backups"
	}

	if cfg.BackupInterval == 0 {
		cfg.BackupInterval = 24 * time.Hour
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	keep, err := parseInt(os.Getenv("BACKUP_KEEP"), 7)
	if err != nil || keep < 1 {
		return cfg, fmt.Errorf("BACKUP_KEEP must be a positive number")
	}
	cfg.BackupKeep = keep

	owner, err := parseInt(os.Getenv("TELEGRAM_OWNER_ID"), 0)
	if err != nil {
		return cfg, fmt.Errorf("TELEGRAM_OWNER_ID must be a numeric Telegram user id")
	}
	cfg.TelegramOwnerID = int64(owner)

	return cfg, nil
}

// RequireTelegram validates the settings only the bot needs.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
