package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoragePostgres, cfg.App.Storage)
	assert.Equal(t, "0 2 * * *", cfg.Scheduler.Cron)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.LockTTL)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_STORAGE", "MEMORY")
	t.Setenv("SCHEDULER_CRON", "30 5 * * 1-5")
	t.Setenv("SCHEDULER_LOCK_TTL", "90s")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("RETRY_MAX_ATTEMPTS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.App.Storage)
	assert.Equal(t, "30 5 * * 1-5", cfg.Scheduler.Cron)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.LockTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_STORAGE", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("APP_STORAGE", "memory")
	t.Setenv("SCHEDULER_CRON", "0 24 * * *")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "reposicion", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/reposicion?sslmode=disable", db.ConnectionString())

	db.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", db.ConnectionString())
}

func TestSchedulerConfig_Location(t *testing.T) {
	assert.Equal(t, "America/Bogota", config.SchedulerConfig{Timezone: "America/Bogota"}.Location().String())
	assert.Equal(t, time.UTC, config.SchedulerConfig{Timezone: "Nowhere/City"}.Location())
}
