package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/pkg/errors"
)

type Config struct {
	Postgres PostgresConfig
	Redis    RedisConfig
	Engine   EngineConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type EngineConfig struct {
	Accounts         []string
	FullInterval     time.Duration
	RealtimeInterval time.Duration
	CycleTimeout     time.Duration
	Concurrency      int
	Timezone         string
	ActiveSection    string
}

type HTTPConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level  string
	File   string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "creator_dashboard"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Engine: EngineConfig{
			Accounts:         parseCommaSeparated(getEnv("ENGINE_ACCOUNTS", "")),
			FullInterval:     getEnvDuration("ENGINE_FULL_INTERVAL", constants.RefreshConfig.FullInterval),
			RealtimeInterval: getEnvDuration("ENGINE_REALTIME_INTERVAL", constants.RefreshConfig.RealtimeInterval),
			CycleTimeout:     getEnvDuration("ENGINE_CYCLE_TIMEOUT", constants.RefreshConfig.CycleTimeout),
			Concurrency:      getEnvInt("ENGINE_CONCURRENCY", constants.RefreshConfig.Concurrency),
			Timezone:         getEnv("ENGINE_TIMEZONE", "UTC"),
			ActiveSection:    getEnv("ENGINE_ACTIVE_SECTION", constants.DefaultActiveSection),
		},
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			File:   getEnv("LOG_FILE", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Postgres.Host == "" {
		return errors.NewValidationError("POSTGRES_HOST is required", "POSTGRES_HOST", c.Postgres.Host)
	}
	if c.Postgres.Database == "" {
		return errors.NewValidationError("POSTGRES_DB is required", "POSTGRES_DB", c.Postgres.Database)
	}
	if c.Redis.Host == "" {
		return errors.NewValidationError("REDIS_HOST is required", "REDIS_HOST", c.Redis.Host)
	}
	if c.Engine.FullInterval <= 0 {
		return errors.NewValidationError("ENGINE_FULL_INTERVAL must be positive", "ENGINE_FULL_INTERVAL", c.Engine.FullInterval)
	}
	if c.Engine.RealtimeInterval <= 0 {
		return errors.NewValidationError("ENGINE_REALTIME_INTERVAL must be positive", "ENGINE_REALTIME_INTERVAL", c.Engine.RealtimeInterval)
	}
	if c.Engine.RealtimeInterval > c.Engine.FullInterval {
		return errors.NewValidationError("ENGINE_REALTIME_INTERVAL must not exceed ENGINE_FULL_INTERVAL",
			"ENGINE_REALTIME_INTERVAL", c.Engine.RealtimeInterval)
	}
	if c.Engine.CycleTimeout <= 0 {
		return errors.NewValidationError("ENGINE_CYCLE_TIMEOUT must be positive", "ENGINE_CYCLE_TIMEOUT", c.Engine.CycleTimeout)
	}
	if c.Engine.Concurrency < 1 {
		return errors.NewValidationError("ENGINE_CONCURRENCY must be at least 1", "ENGINE_CONCURRENCY", c.Engine.Concurrency)
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		verr := errors.NewValidationError("ENGINE_TIMEZONE is invalid", "ENGINE_TIMEZONE", c.Engine.Timezone)
		verr.Cause = err
		return verr
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
