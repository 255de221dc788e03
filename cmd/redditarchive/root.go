package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"redditarchive/pkg/mode"
	"redditarchive/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool

	// Archive flags
	assetsDir   string
	maxAttempts int
)

// rootCmd archives one mode into a location
var rootCmd = &cobra.Command{
	Use:   "redditarchive <mode> <location>",
	Short: "Archive your Reddit activity as browsable HTML",
	Long: `Reddit Archive saves your Reddit activity into a static HTML archive.

Each run fetches the items of one mode, renders the ones not yet archived
and rewrites the mode's document in place. Modes:
` + modeHelp() + `
Inside the container (DOCKER=1) the location argument is not accepted and
the archive is written to ` + "./archive/" + `.`,
	Example: `  # Archive saved posts and comments
  redditarchive saved ~/reddit

  # Retry failed pages at most twice
  redditarchive upvoted ~/reddit --max-attempts 2

  # Pick up posts that were private on an earlier run
  redditarchive private_posts_containing_my_comments ~/reddit`,
	ValidArgs: mode.Names(),
	Args:      modeArgs(os.Getenv("DOCKER") == "1"),
	Version:   fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuiet(true)
		}
		if cmd == cmd.Root() {
			ui.PrintLogo()
		}
	},
	Run: runArchive,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/redditarchive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.Flags().StringVar(&assetsDir, "assets", "", "directory overriding the built-in HTML shells, style and script")
	rootCmd.Flags().IntVar(&maxAttempts, "max-attempts", 5, "attempts per standalone page, 0 retries forever")

	rootCmd.SetVersionTemplate(`Reddit Archive {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// modeArgs accepts a mode followed by a location, or the mode alone when
// running inside the container
func modeArgs(docker bool) cobra.PositionalArgs {
	want := 2
	if docker {
		want = 1
	}
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != want {
			if docker {
				return fmt.Errorf("expected <mode>, got %d argument(s)", len(args))
			}
			return fmt.Errorf("expected <mode> <location>, got %d argument(s)", len(args))
		}
		_, err := mode.Lookup(args[0])
		return err
	}
}

func modeHelp() string {
	var b strings.Builder
	for _, m := range mode.All() {
		fmt.Fprintf(&b, "  %-38s %s\n", m.Name, m.Description)
	}
	return b.String()
}
