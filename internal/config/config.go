// Package config loads engine configuration from the environment.
// A .env file is honored when present, matching how the rest of the
// deployment is configured.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the process reads at startup
type Config struct {
	// Mode selects logging output ("dev" or "prod")
	Mode string

	// DBType selects the sql driver: "postgres" (default) or "sqlite"
	DBType string
	// DatabaseURL is the postgres DSN, or the sqlite file path
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ScheduleTTL bounds how long a generated per-user schedule stays cached
	ScheduleTTL time.Duration
	// StaleAfter is the hourly-refresh staleness threshold
	StaleAfter time.Duration

	// BatchSize is the initial daily-regeneration batch size (self-tuned at runtime)
	BatchSize int
	// BatchPause is the pause between batches inside the daily job
	BatchPause time.Duration

	// Window is the daily review window used when callers pass no override
	WindowStartHour int
	WindowEndHour   int
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Config {
	// Missing .env is fine: the environment may be set by the supervisor.
	_ = godotenv.Load()

	return &Config{
		Mode:            getString("APP_MODE", "dev"),
		DBType:          getString("DB_TYPE", "postgres"),
		DatabaseURL:     getString("DATABASE_URL", "postgres://localhost:5432/reviewcore?sslmode=disable"),
		RedisAddr:       getString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getString("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		ScheduleTTL:     getDuration("SCHEDULE_TTL", 6*time.Hour),
		StaleAfter:      getDuration("SCHEDULE_STALE_AFTER", 4*time.Hour),
		BatchSize:       getInt("BATCH_SIZE", 50),
		BatchPause:      getDuration("BATCH_PAUSE", 200*time.Millisecond),
		WindowStartHour: getHour("REVIEW_WINDOW_START", 9),
		WindowEndHour:   getHour("REVIEW_WINDOW_END", 22),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getHour(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
