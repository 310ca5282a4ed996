package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the runtime configuration loaded from the environment.
type Config struct {
	DatabaseURL string
	ServerPort  string
	JWTSecret   string

	AllowedOrigins string

	Telegram  TelegramConfig
	Reconcile ReconcileConfig
}

// TelegramConfig configures the order-taking bot.
type TelegramConfig struct {
	BotToken      string
	WebhookSecret string
	// Enabled is derived: the bot surface is wired only when a token is present.
	Enabled bool
}

// ReconcileConfig configures the scheduled status reconciliation job.
type ReconcileConfig struct {
	// CronSpec is a standard 5-field cron expression. Default: nightly at 02:00.
	CronSpec string
	// BatchTimeoutSec bounds a single reconciliation run.
	BatchTimeoutSec int
}

// Load reads configuration from the environment. DATABASE_URL and JWT_SECRET
// are required; everything else has a default.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		Telegram: TelegramConfig{
			BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
			WebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		},
		Reconcile: ReconcileConfig{
			CronSpec:        getEnv("RECONCILE_CRON", "0 2 * * *"),
			BatchTimeoutSec: getEnvInt("RECONCILE_TIMEOUT_SEC", 120),
		},
	}
	cfg.Telegram.Enabled = cfg.Telegram.BotToken != ""

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
