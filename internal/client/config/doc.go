// Package config loads runtime configuration for the davmarks client.
//
// # Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed DAVMARKS_, optionally read from a
//     dotenv file (./.env, or the file given with -env).
//  3. An optional JSON file selected with -c or -config.
//  4. Command-line flags, which override everything else.
//
// # Flags
//
//	-d string   data directory (database and log file)
//	-i int      background sync interval (minutes)
//	-t int      request timeout (seconds)
//	-b string   browser convention: auto, chrome, firefox
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
//	{
//	  "data_dir": "/home/me/.davmarks",
//	  "sync_interval": "10m",
//	  "initial_sync_delay": "1m",
//	  "debounce_window": "20s",
//	  "request_timeout": "30s",
//	  "browser": "firefox",
//	  "log_level": "debug",
//	  "auto_sync": true
//	}
package config
