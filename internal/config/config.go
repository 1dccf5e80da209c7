package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the console and the bot.
type Config struct {
	DatabaseURL         string
	DBLogLevel          string
	TelegramToken       string
	TelegramAllowUserID int64
	DailyMenuTime       string
}

// Load reads configuration from .env and environment variables with sane defaults.
func Load() (Config, error) {
	if err := loadEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBLogLevel:    strings.TrimSpace(os.Getenv("DB_LOG_LEVEL")),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DailyMenuTime: getEnv("DAILY_MENU_TIME", "08:00"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "meal_planner.db"
	}

	if cfg.DBLogLevel == "" {
		cfg.DBLogLevel = "warn"
	}

	ownerID, err := parseInt64Env("TELEGRAM_ALLOW_USER_ID")
	if err != nil {
		return cfg, err
	}
	cfg.TelegramAllowUserID = ownerID

	return cfg, nil
}

// RequireBot reports the settings the Telegram front-end cannot run without.
func (c Config) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramAllowUserID == 0 {
		return fmt.Errorf("TELEGRAM_ALLOW_USER_ID is required")
	}
	return nil
}

// ReminderEnabled is false when DAILY_MENU_TIME is set to an empty value.
func (c Config) ReminderEnabled() bool {
	return c.DailyMenuTime != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseInt64Env(key string) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
