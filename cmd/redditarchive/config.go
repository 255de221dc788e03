package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"redditarchive/pkg/config"
	"redditarchive/pkg/storage"
	"redditarchive/pkg/ui"
)

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Reddit Archive configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (REDDITARCHIVE_*)
  - .env files
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'redditarchive.yaml' in the current directory
unless a different path is given with --config.`,
	Run: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. Secrets are
masked.`,
	Run: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# Reddit Archive configuration
#
# Every option can also be set through environment variables prefixed
# with REDDITARCHIVE_, for example REDDITARCHIVE_CLIENT_ID.

# Reddit "script" application credentials
# Create an application at https://www.reddit.com/prefs/apps
reddit:
  client_id: ""
  client_secret: ""
  username: ""
  password: ""
  user_agent: "redditarchive/1.0"

archive:
  # Pending private posts are recorded here, relative to the working
  # directory
  ledger_file: "private_posts_containing_my_comments.txt"

  # Directory overriding the built-in HTML shells, style.css and main.js
  assets_directory: ""

# Retry policy for standalone post pages
retry:
  # 0 retries forever
  max_attempts: 5
  initial_backoff: 1s
  max_backoff: 30s
  multiplier: 2.0
  jitter_factor: 0.1

rate_limit:
  requests_per_minute: 60

download:
  timeout: 30s
  # Bytes, 0 means no limit
  max_media_size: 0
  skip_videos: false

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "redditarchive.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		ui.PrintError("Failed to create configuration directory", err.Error())
		os.Exit(1)
	}
	if err := storage.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your Reddit credentials, or run 'redditarchive auth login'")
	fmt.Println("2. Run 'redditarchive config validate' to check the configuration")
	fmt.Println("3. Start archiving with 'redditarchive saved <location>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	display := *cfg
	display.Reddit.Password = mask(display.Reddit.Password)
	display.Reddit.ClientSecret = mask(display.Reddit.ClientSecret)

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if !cfg.HasCredentials() {
		warnings = append(warnings, "Reddit credentials are incomplete; stored credentials will be used")
	}
	if cfg.Archive.AssetsDirectory != "" {
		if info, err := os.Stat(cfg.Archive.AssetsDirectory); err != nil || !info.IsDir() {
			warnings = append(warnings, "assets directory not found; built-in assets will be used")
		}
	}
	if cfg.Retry.MaxAttempts == 0 {
		warnings = append(warnings, "max_attempts is 0; a page that never renders will stall the run")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Ledger file: %s\n", cfg.Archive.LedgerFile)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max attempts: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

// mask hides all but the ends of a secret
func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:2] + "..." + s[len(s)-2:]
	default:
		return "***"
	}
}
