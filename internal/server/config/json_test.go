package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()

	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, dir, "full.json", map[string]any{
			"addr":             "0.0.0.0:8443",
			"root":             "/var/dav",
			"username":         "carol",
			"password":         "pw",
			"shutdown_timeout": "10s",
			"log_level":        "warn",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "0.0.0.0:8443", cfg.Addr)
		assert.Equal(t, "/var/dav", cfg.Root)
		assert.Equal(t, "carol", cfg.Username)
		assert.Equal(t, "pw", cfg.Password)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		path := writeTempJSON(t, dir, "partial.json", map[string]any{"root": "/data"})
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "/data", cfg.Root)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("no flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)
		assert.Equal(t, "./davroot", cfg.Root)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid json panics", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-config", path}
		assert.Panics(t, func() { parseJson(&Config{}) })
	})
}
