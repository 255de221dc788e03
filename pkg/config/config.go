package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DockerArchiveLocation is used instead of the location argument when
	// DOCKER=1.
	DockerArchiveLocation = "./archive/"

	// DefaultLedgerFile is resolved against the process working directory,
	// not the archive location.
	DefaultLedgerFile = "private_posts_containing_my_comments.txt"
)

// Config holds all configuration options for the archiver
type Config struct {
	// Reddit API credentials and endpoints
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// Archive layout
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Retry policy for standalone page rendering
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Client-side rate limiting of API calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Docker is set from the DOCKER environment variable
	Docker bool `yaml:"-" json:"-"`
}

// RedditConfig holds credentials for a Reddit "script" application
type RedditConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
	AuthURL      string `yaml:"auth_url" json:"auth_url"`
	APIURL       string `yaml:"api_url" json:"api_url"`
}

// ArchiveConfig holds output locations
type ArchiveConfig struct {
	Location        string `yaml:"location" json:"location"`
	LedgerFile      string `yaml:"ledger_file" json:"ledger_file"`
	AssetsDirectory string `yaml:"assets_directory" json:"assets_directory"`
}

// RetryConfig configures the bounded retry around page rendering.
// MaxAttempts of 0 retries forever.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor   float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// DownloadConfig holds media download configuration
type DownloadConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MaxMediaSize int64         `yaml:"max_media_size" json:"max_media_size"`
	SkipVideos   bool          `yaml:"skip_videos" json:"skip_videos"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			UserAgent: "redditarchive/1.0",
			AuthURL:   "https://www.reddit.com",
			APIURL:    "https://oauth.reddit.com",
		},
		Archive: ArchiveConfig{
			LedgerFile: DefaultLedgerFile,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
			Multiplier:     2.0,
			JitterFactor:   0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Download: DownloadConfig{
			Timeout:      30 * time.Second,
			MaxMediaSize: 0, // 0 means no limit
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("REDDITARCHIVE_CLIENT_ID"); v != "" {
		c.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDITARCHIVE_CLIENT_SECRET"); v != "" {
		c.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDITARCHIVE_USERNAME"); v != "" {
		c.Reddit.Username = v
	}
	if v := os.Getenv("REDDITARCHIVE_PASSWORD"); v != "" {
		c.Reddit.Password = v
	}
	if v := os.Getenv("REDDITARCHIVE_USER_AGENT"); v != "" {
		c.Reddit.UserAgent = v
	}

	if v := os.Getenv("REDDITARCHIVE_LEDGER_FILE"); v != "" {
		c.Archive.LedgerFile = v
	}
	if v := os.Getenv("REDDITARCHIVE_ASSETS_DIR"); v != "" {
		c.Archive.AssetsDirectory = v
	}

	if v := os.Getenv("REDDITARCHIVE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDDITARCHIVE_MAX_ATTEMPTS: %w", err)
		}
		c.Retry.MaxAttempts = n
	}

	if v := os.Getenv("REDDITARCHIVE_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDDITARCHIVE_REQUESTS_PER_MINUTE: %w", err)
		}
		if n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if v := os.Getenv("REDDITARCHIVE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	c.Docker = os.Getenv("DOCKER") == "1"
	if c.Docker {
		c.Archive.Location = DockerArchiveLocation
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".redditarchive.yaml",
		".redditarchive.yml",
		filepath.Join(home, ".config", "redditarchive", "config.yaml"),
		filepath.Join(home, ".config", "redditarchive", "config.yml"),
		filepath.Join(home, ".redditarchive.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// checked here since they may come from the credential store later.
func (c *Config) Validate() error {
	var errs []error

	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Reddit.AuthURL == "" || c.Reddit.APIURL == "" {
		errs = append(errs, errors.New("reddit auth and api URLs are required"))
	}

	if c.Archive.LedgerFile == "" {
		errs = append(errs, errors.New("ledger file is required"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("jitter factor must be between 0 and 1"))
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		errs = append(errs, errors.New("max backoff must not be less than initial backoff"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxMediaSize < 0 {
		errs = append(errs, errors.New("max media size cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// HasCredentials reports whether all four script-app credentials are set
func (c *Config) HasCredentials() bool {
	r := c.Reddit
	return r.ClientID != "" && r.ClientSecret != "" && r.Username != "" && r.Password != ""
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if location, ok := flags["location"].(string); ok && location != "" && !c.Docker {
		c.Archive.Location = location
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if assets, ok := flags["assets"].(string); ok && assets != "" {
		c.Archive.AssetsDirectory = assets
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts >= 0 {
		c.Retry.MaxAttempts = attempts
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".redditarchive.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
