package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	databaseFile = "davmarks.db"
	logFile      = "davmarks.log"
)

// Config holds runtime settings for the davmarks client.
//
// Fields:
//   - DataDir: directory holding the SQLite database and the log file.
//   - SyncInterval: period of the background sync.
//   - InitialSyncDelay: wait before the first background sync after start.
//   - DebounceWindow: a download is not repeated within this window while
//     the remote timestamp is unchanged.
//   - RequestTimeout: upper bound for a single WebDAV request.
//   - Browser: root folder convention: "auto", "chrome" or "firefox".
//   - LogLevel: debug, info, warn or error.
//   - AutoSync: enables the background sync loop.
type Config struct {
	DataDir          string        `validate:"required"`
	SyncInterval     time.Duration `validate:"gt=0"`
	InitialSyncDelay time.Duration `validate:"gte=0"`
	DebounceWindow   time.Duration `validate:"gte=0"`
	RequestTimeout   time.Duration `validate:"gt=0"`
	Browser          string        `validate:"oneof=auto chrome firefox"`
	LogLevel         string        `validate:"oneof=debug info warn error"`
	AutoSync         bool
}

// LoadDefaults populates c with the documented defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "davmarks-data"
	c.SyncInterval = 10 * time.Minute
	c.InitialSyncDelay = 1 * time.Minute
	c.DebounceWindow = 20 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.Browser = "auto"
	c.LogLevel = "info"
	c.AutoSync = true
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DatabasePath is the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, databaseFile)
}

// LogPath is the rotating log file inside DataDir.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, logFile)
}

// LoadConfig constructs a Config from defaults, then overlays the
// environment (including a dotenv file), an optional JSON file and
// command-line flags. Later sources take precedence. Malformed JSON or
// flags panic; the result is validated before it is returned.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
