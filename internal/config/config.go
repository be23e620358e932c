package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN            string
	Environment      string
	HTTPAddr         string
	JWTSecret        string
	TelegramToken    string
	RedisAddr        string
	RedisPassword    string
	MeetingBaseURL   string
	Location         *time.Location
	ReminderInterval time.Duration
	ReminderLead     time.Duration
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    getEnv("ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		MeetingBaseURL: getEnv("MEETING_BASE_URL", "https://meet.jit.si"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" && cfg.TelegramToken == "" {
		return nil, fmt.Errorf("at least one of JWT_SECRET or TELEGRAM_TOKEN must be set")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.ReminderInterval, err = getDuration("REMINDER_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderLead, err = getDuration("REMINDER_LEAD", 24*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}
