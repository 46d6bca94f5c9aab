package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/davmarks/internal/flagx"
	"github.com/dmitrijs2005/davmarks/internal/timex"
)

// JsonConfig is the JSON file shape. Absent keys keep the current value.
type JsonConfig struct {
	Addr            string          `json:"addr"`
	Root            string          `json:"root"`
	Username        string          `json:"username"`
	Password        string          `json:"password"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	LogLevel        string          `json:"log_level"`
}

// parseJson overlays config with the JSON file named by -c or -config. If
// the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&config.Addr, c.Addr)
	overlay(&config.Root, c.Root)
	overlay(&config.Username, c.Username)
	overlay(&config.Password, c.Password)
	overlay(&config.LogLevel, c.LogLevel)
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
