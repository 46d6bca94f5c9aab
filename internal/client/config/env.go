package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/davmarks/internal/flagx"
)

const defaultEnvFile = ".env"

// parseEnv overlays Config with DAVMARKS_* environment variables. A dotenv
// file is loaded first (-env path, or ./.env when present); variables that
// are already set in the process environment win over the file. Values
// that do not parse keep the current setting.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		_ = godotenv.Load(path)
	} else if _, err := os.Stat(defaultEnvFile); err == nil {
		_ = godotenv.Load(defaultEnvFile)
	}

	cfg.DataDir = getEnv("DAVMARKS_DATA_DIR", cfg.DataDir)
	cfg.SyncInterval = getEnvAsDuration("DAVMARKS_SYNC_INTERVAL", cfg.SyncInterval)
	cfg.InitialSyncDelay = getEnvAsDuration("DAVMARKS_INITIAL_SYNC_DELAY", cfg.InitialSyncDelay)
	cfg.DebounceWindow = getEnvAsDuration("DAVMARKS_DEBOUNCE_WINDOW", cfg.DebounceWindow)
	cfg.RequestTimeout = getEnvAsDuration("DAVMARKS_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.Browser = getEnv("DAVMARKS_BROWSER", cfg.Browser)
	cfg.LogLevel = getEnv("DAVMARKS_LOG_LEVEL", cfg.LogLevel)
	cfg.AutoSync = getEnvAsBool("DAVMARKS_AUTO_SYNC", cfg.AutoSync)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
