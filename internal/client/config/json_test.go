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

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads from -config flag", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"server_endpoint_url":   "http://example:9000",
			"database_path":         "other.db",
			"online_check_interval": "10s",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "http://example:9000", cfg.ServerEndpointURL)
		assert.Equal(t, "other.db", cfg.DatabasePath)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("no flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			ServerEndpointURL:   "http://defaults:1234",
			OnlineCheckInterval: 42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.ServerEndpointURL)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("missing fields keep earlier values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"server_endpoint_url": "http://example:9000",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{DatabasePath: "keep.db", OnlineCheckInterval: 5 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "http://example:9000", cfg.ServerEndpointURL)
		assert.Equal(t, "keep.db", cfg.DatabasePath)
		assert.Equal(t, 5*time.Second, cfg.OnlineCheckInterval)
	})
}
