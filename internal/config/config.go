// Package config provides environment-aware configuration management for
// simorgd, mirroring the teacher's internal/config: an Environment enum,
// a flat Config struct, and a Load() that layers an optional .env file
// under real environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func parseEnvironment(s string) (Environment, bool) {
	switch Environment(s) {
	case Development, Testing, Production:
		return Environment(s), true
	default:
		return "", false
	}
}

// Config holds every knob simorgd needs.
type Config struct {
	Env Environment

	HTTPAddr string

	// PostgresDSN selects the storage backend: empty means in-memory
	// (session's default), non-empty means persistence/postgres.
	PostgresDSN string

	LogLevel  string
	LogFormat string

	// SnapshotCadence is N in "snapshot every N events" (spec §4.9).
	SnapshotCadence int64

	JWTSecret string

	RateLimitPerSecond float64
	RateLimitBurst     int

	// MaintenanceCron schedules the background verify/prune worker
	// (session/maintenance).
	MaintenanceCron string

	MetricsEnabled bool
}

// Load reads SIMORG_ENV, optionally loads config/<env>.env, then layers
// real environment variables on top.
func Load() (*Config, error) {
	envStr := os.Getenv("SIMORG_ENV")
	if envStr == "" {
		envStr = string(Development)
	}
	env, ok := parseEnvironment(envStr)
	if !ok {
		return nil, fmt.Errorf("invalid SIMORG_ENV: %s (must be development, testing, or production)", envStr)
	}

	configFile := filepath.Join("config", fmt.Sprintf("%s.env", env))
	if err := godotenv.Load(configFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("warning: could not load %s: %v\n", configFile, err)
		}
	}

	cfg := &Config{Env: env}
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	c.HTTPAddr = getEnv("SIMORG_HTTP_ADDR", ":8080")
	c.PostgresDSN = getEnv("SIMORG_POSTGRES_DSN", "")
	c.LogLevel = getEnv("SIMORG_LOG_LEVEL", "info")
	c.LogFormat = getEnv("SIMORG_LOG_FORMAT", "json")
	c.SnapshotCadence = getInt64Env("SIMORG_SNAPSHOT_CADENCE", 50)
	c.JWTSecret = getEnv("SIMORG_JWT_SECRET", "")
	c.RateLimitPerSecond = getFloatEnv("SIMORG_RATE_LIMIT_PER_SECOND", 50)
	c.RateLimitBurst = getIntEnv("SIMORG_RATE_LIMIT_BURST", 100)
	c.MaintenanceCron = getEnv("SIMORG_MAINTENANCE_CRON", "0 * * * *")
	c.MetricsEnabled = getBoolEnv("SIMORG_METRICS_ENABLED", true)
}

// IsDevelopment reports whether Env is Development.
func (c *Config) IsDevelopment() bool { return c.Env == Development }

// IsProduction reports whether Env is Production.
func (c *Config) IsProduction() bool { return c.Env == Production }

// Validate enforces the knobs that matter once deployed.
func (c *Config) Validate() error {
	if c.SnapshotCadence <= 0 {
		return fmt.Errorf("SIMORG_SNAPSHOT_CADENCE must be positive")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("SIMORG_JWT_SECRET is required in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
