package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://www.reddit.com", cfg.Reddit.AuthURL)
	assert.Equal(t, "https://oauth.reddit.com", cfg.Reddit.APIURL)
	assert.NotEmpty(t, cfg.Reddit.UserAgent)

	assert.Equal(t, DefaultLedgerFile, cfg.Archive.LedgerFile)
	assert.Empty(t, cfg.Archive.Location)

	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxBackoff)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)

	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REDDITARCHIVE_CLIENT_ID", "cid")
	t.Setenv("REDDITARCHIVE_CLIENT_SECRET", "secret")
	t.Setenv("REDDITARCHIVE_USERNAME", "spez")
	t.Setenv("REDDITARCHIVE_PASSWORD", "hunter2")
	t.Setenv("REDDITARCHIVE_MAX_ATTEMPTS", "0")
	t.Setenv("REDDITARCHIVE_REQUESTS_PER_MINUTE", "30")
	t.Setenv("REDDITARCHIVE_LOG_LEVEL", "debug")
	t.Setenv("DOCKER", "")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "cid", cfg.Reddit.ClientID)
	assert.Equal(t, "secret", cfg.Reddit.ClientSecret)
	assert.Equal(t, "spez", cfg.Reddit.Username)
	assert.Equal(t, "hunter2", cfg.Reddit.Password)
	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, 0, cfg.Retry.MaxAttempts)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Docker)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("REDDITARCHIVE_MAX_ATTEMPTS", "many")

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestDockerLocation(t *testing.T) {
	t.Setenv("DOCKER", "1")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.True(t, cfg.Docker)
	assert.Equal(t, DockerArchiveLocation, cfg.Archive.Location)

	// A location flag is ignored inside the container.
	cfg.MergeCommandLineFlags(map[string]interface{}{"location": "/elsewhere"})
	assert.Equal(t, DockerArchiveLocation, cfg.Archive.Location)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unlimited attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, false},
		{"negative attempts", func(c *Config) { c.Retry.MaxAttempts = -1 }, true},
		{"multiplier below one", func(c *Config) { c.Retry.Multiplier = 0.5 }, true},
		{"jitter out of range", func(c *Config) { c.Retry.JitterFactor = 2 }, true},
		{"backoff cap below base", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, true},
		{"empty ledger", func(c *Config) { c.Archive.LedgerFile = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"no user agent", func(c *Config) { c.Reddit.UserAgent = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
reddit:
  client_id: from-file
  user_agent: test-agent/0.1
archive:
  assets_directory: ./html
retry:
  max_attempts: 7
  initial_backoff: 250ms
  max_backoff: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "from-file", cfg.Reddit.ClientID)
	assert.Equal(t, "test-agent/0.1", cfg.Reddit.UserAgent)
	assert.Equal(t, "./html", cfg.Archive.AssetsDirectory)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxBackoff)
	// untouched sections keep their defaults
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nretry:\n  max_attempts: 2\n"), 0644))

	t.Setenv("DOCKER", "")
	t.Setenv("REDDITARCHIVE_LOG_LEVEL", "error")

	cfg, err := Load(path, map[string]interface{}{
		"location":     dir,
		"max-attempts": 9,
	})
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level, "env overrides file")
	assert.Equal(t, 9, cfg.Retry.MaxAttempts, "flags override file")
	assert.Equal(t, dir, cfg.Archive.Location)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Reddit.Username = "saver"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saver", loaded.Reddit.Username)
	assert.Equal(t, cfg.Retry, loaded.Retry)
}
