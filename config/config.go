// Package config loads and validates the environment-sourced configuration
// shared by cmd/listener, cmd/janitor, and cmd/simulate (spec §6).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`

	MSSQLServer     string `env:"MSSQL_SERVER,required" validate:"required"`
	MSSQLDatabase   string `env:"MSSQL_DATABASE,required" validate:"required"`
	MSSQLUser       string `env:"MSSQL_USER,required" validate:"required"`
	MSSQLPassword   string `env:"MSSQL_PASSWORD,required" validate:"required"`
	MSSQLODBCDriver string `env:"MSSQL_ODBC_DRIVER"`

	ZKPort int `env:"ZK_PORT" envDefault:"4370" validate:"min=1,max=65535"`

	// AttendanceTZOffset is parsed by hand in Load, not by the env/validator
	// tags above: spec §4.1 requires an invalid value be reported and
	// treated as 0, not a fatal config error.
	AttendanceTZOffset     int `env:"-"`
	CleanupIntervalSeconds int `env:"CLEANUP_INTERVAL_SECONDS" envDefault:"14400" validate:"min=60"`
	CleanupThresholdHours  int `env:"CLEANUP_THRESHOLD_HOURS" envDefault:"16" validate:"min=1"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	AdminPort  string `env:"ADMIN_PORT" envDefault:"9090"`
	ShardCount int    `env:"SHARD_COUNT" envDefault:"64" validate:"min=1,max=4096"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.AttendanceTZOffset = parseTZOffset(os.Getenv("ATTENDANCE_TZ_OFFSET"))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// parseTZOffset parses ATTENDANCE_TZ_OFFSET leniently per spec §4.1: an
// unset value means 0, and a non-numeric or out-of-range value is reported
// and treated as 0 rather than aborting startup, mirroring the original's
// "try/except ValueError" fallback around int(os.environ[...]).
func parseTZOffset(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid ATTENDANCE_TZ_OFFSET, defaulting to 0", "value", raw, "error", err)
		return 0
	}
	if v < -23 || v > 23 {
		slog.Warn("ATTENDANCE_TZ_OFFSET out of range, defaulting to 0", "value", v)
		return 0
	}
	return v
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
