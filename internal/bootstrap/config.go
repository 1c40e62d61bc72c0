// Package bootstrap reads process configuration and assembles the accounting
// service on top of the configured store.
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config is the process configuration shared by cmd/server and cmd/report.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	// DatabaseURL selects the PostgreSQL store; empty means in-memory
	DatabaseURL      string
	DBMaxConns       int
	DBMinConns       int
	StatementTimeout time.Duration

	// Location defines calendar days for mean prices
	Location *time.Location

	// SeedDemo fills the in-memory store with a demo ledger
	SeedDemo bool

	AllowedOrigins []string
}

// Production reports whether APP_ENV is "production".
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

// Development reports whether APP_ENV is "development".
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// LoadConfig reads the environment, after merging a .env file from the
// working directory when one exists.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	tz := GetEnv("LEDGER_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("LEDGER_TIMEZONE %q: %w", tz, err)
	}

	return Config{
		AppEnv:           GetEnv("APP_ENV", "development"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		Port:             GetEnv("APP_PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       GetEnvInt("DB_MAX_CONNS", 0),
		DBMinConns:       GetEnvInt("DB_MIN_CONNS", 0),
		StatementTimeout: GetEnvDuration("DB_STATEMENT_TIMEOUT", 0),
		Location:         loc,
		SeedDemo:         GetEnvBool("SEED_DEMO", false),
		AllowedOrigins:   GetEnvList("CORS_ALLOWED_ORIGINS"),
	}, nil
}

// GetEnv returns the variable or defaultValue when it is unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt falls back to defaultValue when the variable is not an integer.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvList splits a comma-separated variable, dropping empty items.
func GetEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
