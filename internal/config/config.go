package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken     string
	LogLevel          string
	LogFormat         string
	Port              string
	StoreDriver       string
	DataFile          string
	DatabaseURL       string
	SQLitePath        string
	MigrationsPath    string
	HeartbeatSecret   string
	AdminPasswordHash string
	TickInterval      time.Duration
	OwnerIDs          []int64
}

// Load loads configuration from environment variables. Values from a .env
// file in the working directory are applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "text"),
		Port:              getEnvOrDefault("PORT", "8080"),
		StoreDriver:       strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverFile)),
		DataFile:          getEnvOrDefault("DATA_FILE", "data/db.json"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        getEnvOrDefault("SQLITE_PATH", "data/kitchen.db"),
		MigrationsPath:    getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		HeartbeatSecret:   os.Getenv("HEARTBEAT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	switch cfg.StoreDriver {
	case DriverFile, DriverSQLite, DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	interval, err := time.ParseDuration(getEnvOrDefault("TICK_INTERVAL", "30s"))
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %q", os.Getenv("TICK_INTERVAL"))
	}
	cfg.TickInterval = interval

	if cfg.OwnerIDs, err = ParseOwnerIDs(os.Getenv("OWNER_IDS")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseOwnerIDs parses a comma separated list of Telegram user ids
func ParseOwnerIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
