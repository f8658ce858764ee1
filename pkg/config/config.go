// Package config loads engine configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database   DatabaseConfig
	Remittance RemittanceConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RemittanceConfig holds defaults applied when building instruments.
type RemittanceConfig struct {
	// DueDays is the default due-date offset applied when a request
	// carries no due date.
	DueDays int
	// OutputDir is where generated remittance files are written by the CLI.
	OutputDir string
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Remittance: RemittanceConfig{
			DueDays:   getIntEnv("REMITTANCE_DUE_DAYS", 5),
			OutputDir: getEnv("REMITTANCE_OUTPUT_DIR", "remessas"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
