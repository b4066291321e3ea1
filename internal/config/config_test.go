package config

import (
    "testing"
    "time"

    "github.com/labstack/gommon/log"
    "github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
    t.Setenv("DB_DRIVER", "SQLite")
    t.Setenv("APP_PORT", "")
    t.Setenv("SQLITE_PATH", "")
    t.Setenv("EVENTS_ENABLED", "")
    t.Setenv("EVENTS_QUEUE", "")
    t.Setenv("CORS_ORIGINS", "")
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://user:pw@broker:5672/")

    cfg := Load()

    require.Equal(t, "sqlite", cfg.DBDriver)
    require.Equal(t, "8000", cfg.Port)
    require.Equal(t, "eco_adventures.db", cfg.SQLitePath)
    require.Equal(t, DefaultCORSOrigins, cfg.CORSOrigins)
    require.Equal(t, "amqp://user:pw@broker:5672/", cfg.RabbitURL, "AMQP_URL is the fallback")
    require.Equal(t, "registration.events", cfg.EventsQueue)
    require.False(t, cfg.EventsEnabled)
    require.Empty(t, cfg.DBUser, "MySQL credentials are not required for sqlite")
}

func TestLoad_MySQL(t *testing.T) {
    t.Setenv("DB_DRIVER", "mysql")
    t.Setenv("DB_USER", "eco")
    t.Setenv("DB_HOST", "db")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "eco_adventures")
    t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
    t.Setenv("EVENTS_ENABLED", "yes")

    cfg := Load()

    require.Equal(t, "eco", cfg.DBUser)
    require.Equal(t, "eco_adventures", cfg.DBName)
    require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
    require.True(t, cfg.EventsEnabled)
}

func TestConfig_LogLvl(t *testing.T) {
    require.Equal(t, log.DEBUG, Config{LogLevel: "DEBUG"}.LogLvl())
    require.Equal(t, log.WARN, Config{LogLevel: "warning"}.LogLvl())
    require.Equal(t, log.OFF, Config{LogLevel: "off"}.LogLvl())
    require.Equal(t, log.INFO, Config{LogLevel: "verbose"}.LogLvl())
}

func TestLoadRateLimitConfig(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "3")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_KEY_STRATEGY", "per_user")

    cfg := LoadRateLimitConfig()

    require.Equal(t, 3, cfg.Capacity)
    require.Equal(t, 1, cfg.RefillTokens)
    require.Equal(t, 2*time.Second, cfg.RefillInterval)
    require.Equal(t, 10*time.Second, cfg.TTL, "TTL is raised to five refill intervals")
    require.Equal(t, KeyByIPRoute, cfg.KeyStrategy, "unknown strategy falls back")

    t.Setenv("RATE_LIMIT_KEY_STRATEGY", "IP")
    require.Equal(t, KeyByIP, LoadRateLimitConfig().KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "bogus")
    t.Setenv("CACHE_ENABLED", "")
    t.Setenv("CACHE_PREFIX", "")

    cfg := LoadCacheConfig()

    require.True(t, cfg.Enabled)
    require.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
    require.Equal(t, time.Second, cfg.TTL, "unparseable durations fall back to one second")
    require.Equal(t, "eco:cache", cfg.Prefix)
}

func TestNewRedisClient_Disabled(t *testing.T) {
    t.Setenv("REDIS_ENABLED", "false")
    require.Nil(t, NewRedisClient())
}
