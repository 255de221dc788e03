package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"redditarchive/pkg/archive"
	"redditarchive/pkg/auth"
	"redditarchive/pkg/config"
	"redditarchive/pkg/ledger"
	"redditarchive/pkg/logger"
	"redditarchive/pkg/media"
	"redditarchive/pkg/mode"
	"redditarchive/pkg/ratelimit"
	"redditarchive/pkg/reddit"
	"redditarchive/pkg/render"
	"redditarchive/pkg/retry"
	"redditarchive/pkg/storage"
	"redditarchive/pkg/ui"
)

func runArchive(cmd *cobra.Command, args []string) {
	m, err := mode.Lookup(args[0])
	if err != nil {
		ui.PrintError("Unknown mode", err.Error())
		os.Exit(1)
	}

	flags := make(map[string]interface{})
	if len(args) > 1 {
		flags["location"] = args[1]
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if assetsDir != "" {
		flags["assets"] = assetsDir
	}
	if cmd.Flags().Changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := checkLocation(cfg.Archive.Location); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.InfoWithFields("Reddit Archive starting", map[string]interface{}{
		"version":  version,
		"mode":     m.Name,
		"location": cfg.Archive.Location,
	})

	if err := loadCredentials(cfg); err != nil {
		ui.PrintError("Missing Reddit credentials", err.Error())
		fmt.Println("\nStore them with 'redditarchive auth login' or set REDDITARCHIVE_CLIENT_ID,")
		fmt.Println("REDDITARCHIVE_CLIENT_SECRET, REDDITARCHIVE_USERNAME and REDDITARCHIVE_PASSWORD.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archiver, err := newArchiver(ctx, cfg, log)
	if err != nil {
		ui.PrintError("Failed to initialize archiver", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Mode", m.Name)
	ui.PrintInfo("Location", cfg.Archive.Location)

	start := time.Now()
	result, err := archiver.Run(ctx, m)
	if err != nil {
		log.WithError(err).WithField("mode", m.Name).Error("Archive run failed")
		switch {
		case errors.Is(err, retry.ErrExhausted):
			ui.PrintError("Gave up rendering a page", err.Error())
			fmt.Println("\nThe archive document was left unchanged. Run the same mode again to resume.")
		case errors.Is(err, archive.ErrTemplateContract):
			ui.PrintError("Broken archive template", err.Error())
		default:
			ui.PrintError("Archive run failed", err.Error())
		}
		os.Exit(1)
	}

	printResult(result, time.Since(start))
}

// checkLocation requires the archive location to be an existing directory
func checkLocation(location string) error {
	info, err := os.Stat(location)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", location)
	}
	return nil
}

// loadCredentials fills missing Reddit credentials from the credential
// store. Configuration and environment values take precedence.
func loadCredentials(cfg *config.Config) error {
	if cfg.HasCredentials() {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	account, err := manager.RetrieveDefault()
	if err != nil {
		return err
	}
	if err := account.ApplyTo(&cfg.Reddit); err != nil {
		return err
	}

	if !cfg.HasCredentials() {
		return auth.ErrInvalidCredentials
	}
	return nil
}

// newArchiver wires the Reddit client, renderer, media saver, ledger and
// storage for one archive location
func newArchiver(ctx context.Context, cfg *config.Config, log logger.Logger) (*archive.Archiver, error) {
	store, err := storage.NewManager(cfg.Archive.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare archive location: %w", err)
	}

	client := reddit.NewClient(
		reddit.OptionsFromConfig(cfg),
		ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
		log.WithField("component", "reddit"),
	)

	assets := render.NewAssets(cfg.Archive.AssetsDirectory)
	saver := media.NewSaver(
		client,
		store,
		ratelimit.NewPaced(cfg.RateLimit.RequestsPerMinute, 1),
		media.Options{SkipVideos: cfg.Download.SkipVideos},
		log.WithField("component", "media"),
	)

	return archive.New(archive.Deps{
		Source:   client,
		Renderer: render.New(assets, client),
		Media:    saver,
		Ledger:   ledger.New(cfg.Archive.LedgerFile, log),
		Assets:   assets,
		Storage:  store,
		Retry:    retry.FromConfig(ctx, cfg.Retry, log),
		Console:  ui.Stdout(),
		Logger:   log,
	})
}

func printResult(result *archive.Result, elapsed time.Duration) {
	console := ui.Stdout()
	if console.Quiet() {
		return
	}

	console.Println("")
	console.Success("Archive updated")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"", "New", "Total"})
	t.AppendRow(table.Row{"Posts", result.NewPosts, result.TotalPosts})
	if result.TotalComments > 0 || result.NewComments > 0 {
		t.AppendRow(table.Row{"Comments", result.NewComments, result.TotalComments})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	console.Info("Document", result.Document)
	console.Info("Time", elapsed.Round(time.Millisecond).String())
}
