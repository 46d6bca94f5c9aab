package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/davmarks/internal/flagx"
	"github.com/dmitrijs2005/davmarks/internal/timex"
)

// JsonConfig is the on-disk JSON shape. Durations use timex.Duration, so
// both "10m" and integer nanoseconds are accepted. Keys that are absent
// leave the current value alone.
type JsonConfig struct {
	DataDir          string          `json:"data_dir"`
	SyncInterval     *timex.Duration `json:"sync_interval"`
	InitialSyncDelay *timex.Duration `json:"initial_sync_delay"`
	DebounceWindow   *timex.Duration `json:"debounce_window"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	Browser          string          `json:"browser"`
	LogLevel         string          `json:"log_level"`
	AutoSync         *bool           `json:"auto_sync"`
}

// parseJson overlays Config with the JSON file named by -c or -config.
// Without either flag it does nothing. Read and unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.InitialSyncDelay != nil {
		cfg.InitialSyncDelay = jc.InitialSyncDelay.Duration
	}
	if jc.DebounceWindow != nil {
		cfg.DebounceWindow = jc.DebounceWindow.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.Browser != "" {
		cfg.Browser = jc.Browser
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.AutoSync != nil {
		cfg.AutoSync = *jc.AutoSync
	}
}
