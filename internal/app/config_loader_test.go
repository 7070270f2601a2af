package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Backend.YTDLPBinary)
	assert.Equal(t, 30*time.Second, config.Backend.ResolveTimeout)
	assert.Equal(t, 64*1024, config.Backend.ChunkSize)
	assert.Equal(t, float64(10), config.RateLimit.RequestsPerSecond)
	assert.NotContains(t, config.History.DatabasePath, "$HOME")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
auth:
  api_key: sekrit
backend:
  ytdlp_binary: /opt/bin/yt-dlp
  resolve_timeout: 5s
notify:
  webhook_url: https://hooks.example.com/dl
  environment: production
`), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "sekrit", config.Auth.APIKey)
	assert.Equal(t, "/opt/bin/yt-dlp", config.Backend.YTDLPBinary)
	assert.Equal(t, 5*time.Second, config.Backend.ResolveTimeout)
	assert.Equal(t, "production", config.Notify.Environment)

	// Unset keys keep their defaults.
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, float64(10), config.RateLimit.RequestsPerSecond)
}

func TestLoadConfigValidation(t *testing.T) {
	write := func(t *testing.T, body string) string {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	t.Run("bad port", func(t *testing.T) {
		_, err := LoadConfig(write(t, "server:\n  port: 70000\n"))
		assert.Error(t, err)
	})

	t.Run("empty binary", func(t *testing.T) {
		_, err := LoadConfig(write(t, "backend:\n  ytdlp_binary: \"\"\n"))
		assert.Error(t, err)
	})

	t.Run("zero rate limit", func(t *testing.T) {
		_, err := LoadConfig(write(t, "rate_limit:\n  requests_per_second: 0\n"))
		assert.Error(t, err)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x.db"), expandPath("~/x.db"))
	assert.Equal(t, home+"/y.db", expandPath("$HOME/y.db"))
	assert.Equal(t, "/var/lib/z.db", expandPath("/var/lib/z.db"))
}
