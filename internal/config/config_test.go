package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 6*time.Hour, cfg.ScheduleTTL)
	assert.Equal(t, 4*time.Hour, cfg.StaleAfter)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 9, cfg.WindowStartHour)
	assert.Equal(t, 22, cfg.WindowEndHour)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", "reviews.db")
	t.Setenv("SCHEDULE_TTL", "90m")
	t.Setenv("BATCH_SIZE", "25")
	t.Setenv("REVIEW_WINDOW_START", "7")
	t.Setenv("REVIEW_WINDOW_END", "21")

	cfg := Load()

	assert.Equal(t, "prod", cfg.Mode)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "reviews.db", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Minute, cfg.ScheduleTTL)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 7, cfg.WindowStartHour)
	assert.Equal(t, 21, cfg.WindowEndHour)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SCHEDULE_TTL", "soon")
	t.Setenv("BATCH_SIZE", "many")
	t.Setenv("REVIEW_WINDOW_START", "25")

	cfg := Load()

	assert.Equal(t, 6*time.Hour, cfg.ScheduleTTL)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 9, cfg.WindowStartHour)
}
