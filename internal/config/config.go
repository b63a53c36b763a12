package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	Environment string
	HTTPAddr    string
	JWTSecret   string

	LectureTokenTTL     time.Duration
	ClaimSessionTTL     time.Duration
	SessionReapInterval time.Duration
	TokenRetention      time.Duration
	TokenPruneInterval  time.Duration
	AutoMigrate         bool

	CORSOrigins    []string
	ClaimRateLimit int

	TelegramToken  string
	TelegramChatID int64
	NotifyTimezone string
}

func Load() (*Config, error) {
	// .env is optional; real deployments use the environment
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    getEnv("ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
		NotifyTimezone: getEnv("NOTIFY_TIMEZONE", "Asia/Kolkata"),
	}

	var err error
	if cfg.LectureTokenTTL, err = getDuration("LECTURE_TOKEN_TTL", 6*time.Second); err != nil {
		return nil, err
	}
	if cfg.ClaimSessionTTL, err = getDuration("CLAIM_SESSION_TTL", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionReapInterval, err = getDuration("SESSION_REAP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.TokenRetention, err = getDuration("TOKEN_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenPruneInterval, err = getDuration("TOKEN_PRUNE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate, err = getBool("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}

	if cfg.ClaimRateLimit, err = getInt("CLAIM_RATE_LIMIT", 30); err != nil {
		return nil, err
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s)\n", cfg.Environment)

	return cfg, nil
}

// Validate checks required fields and window sanity.
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.LectureTokenTTL <= 0 {
		return fmt.Errorf("LECTURE_TOKEN_TTL must be positive")
	}
	if c.ClaimSessionTTL < time.Second {
		return fmt.Errorf("CLAIM_SESSION_TTL must be at least 1s")
	}
	if c.SessionReapInterval <= 0 {
		return fmt.Errorf("SESSION_REAP_INTERVAL must be positive")
	}
	if c.TokenRetention < c.ClaimSessionTTL {
		return fmt.Errorf("TOKEN_RETENTION must be at least CLAIM_SESSION_TTL")
	}
	if c.TokenPruneInterval <= 0 {
		return fmt.Errorf("TOKEN_PRUNE_INTERVAL must be positive")
	}
	if c.ClaimRateLimit < 0 {
		return fmt.Errorf("CLAIM_RATE_LIMIT must not be negative")
	}
	if _, err := time.LoadLocation(c.NotifyTimezone); err != nil {
		return fmt.Errorf("NOTIFY_TIMEZONE: %w", err)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves NotifyTimezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.NotifyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
