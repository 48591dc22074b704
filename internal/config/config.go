package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	BaseURL  string
	LogLevel string
	LogJSON  bool

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret     string
	SessionSecret string

	// Redis is optional, the karma run lock falls back to an in-process lock
	RedisURL string

	// SMTP - email delivery is disabled if not configured
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Twilio - SMS delivery is disabled if not configured
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	LimitWarnings         int
	OnlineLimit           time.Duration
	KarmaWindow           time.Duration
	KarmaRunHour          int
	ActivityFlushInterval time.Duration
	OutboxPollInterval    time.Duration
	OutboxMaxAttempts     int
	PageSize              int
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:     getenv("PORT", "8080"),
		BaseURL:  getenv("BASE_URL", "http://localhost:8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		LogJSON:  getenvBool("LOG_JSON", false),

		DatabaseURL: getenv("DATABASE_URL", ""),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  getenv("DB_PASSWORD", "postgres"),
		DBName:      getenv("DB_NAME", "agora"),
		DBSSLMode:   getenv("DB_SSLMODE", "disable"),

		JWTSecret:     getenv("JWT_SECRET", "agora-dev-secret"),
		SessionSecret: getenv("SESSION_SECRET", "agora-dev-session-secret"),

		RedisURL: getenv("REDIS_URL", ""),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPFromName: getenv("SMTP_FROM_NAME", "Agora"),

		TwilioAccountSID: getenv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getenv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getenv("TWILIO_FROM", ""),

		LimitWarnings:         getenvInt("LIMIT_WARNINGS", 3),
		OnlineLimit:           time.Duration(getenvInt("LAST_ACTIVITY_ONLINE_LIMIT_MINUTES", 5)) * time.Minute,
		KarmaWindow:           time.Duration(getenvInt("KARMA_WINDOW_DAYS", 365)) * 24 * time.Hour,
		KarmaRunHour:          getenvInt("KARMA_RUN_HOUR", 3),
		ActivityFlushInterval: time.Duration(getenvInt("ACTIVITY_FLUSH_SECONDS", 30)) * time.Second,
		OutboxPollInterval:    time.Duration(getenvInt("OUTBOX_POLL_SECONDS", 10)) * time.Second,
		OutboxMaxAttempts:     getenvInt("OUTBOX_MAX_ATTEMPTS", 5),
		PageSize:              getenvInt("PAGE_SIZE", 10),
	}
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from DB_* variables.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
