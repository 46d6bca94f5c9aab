// Package config handles configuration for the development WebDAV server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the development WebDAV server.
//
// Fields:
//   - Addr: bind address for the HTTP listener.
//   - Root: directory served as the WebDAV collection.
//   - Username / Password: the single Basic auth account. Test defaults only.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Addr            string        `validate:"required"`
	Root            string        `validate:"required"`
	Username        string        `validate:"required"`
	Password        string        `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure and meant for local testing only.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.Root = "./davroot"
	c.Username = "dav"
	c.Password = "davpassword"
	c.ShutdownTimeout = 5 * time.Second
	c.LogLevel = "info"
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
