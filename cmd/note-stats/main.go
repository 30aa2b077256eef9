package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"note-dashboard-extractor/internal/app"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

type extractFlags struct {
	configPath  string
	headless    bool
	outputDir   string
	maxPages    int
	maxArticles int
	skipDetails bool
	debug       bool
}

func main() {
	root := &cobra.Command{
		Use:           "note-stats",
		Short:         "Extract article statistics from the note.com dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newExtractCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newExtractCmd() *cobra.Command {
	flags := &extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Log in, crawl the stats dashboard and write CSV plus report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to config file (optional)")
	cmd.Flags().BoolVar(&flags.headless, "headless", true, "run the browser headless")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "output directory (overrides config)")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "max listing pages to crawl, 0 = all")
	cmd.Flags().IntVar(&flags.maxArticles, "max-articles", 0, "max articles to enrich with details, 0 = all")
	cmd.Flags().BoolVar(&flags.skipDetails, "skip-details", false, "skip per-article detail pages")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	return cmd
}

func runExtract(cmd *cobra.Command, flags *extractFlags) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, cmd, flags)

	logger := observability.NewLogger(observability.Config{
		Path:       cfg.Observability.LogPath,
		Level:      cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.MaxSizeMB,
		MaxBackups: cfg.Observability.MaxBackups,
		MaxAgeDays: cfg.Observability.MaxAgeDays,
	})
	defer logger.Sync()

	ctx, cancel := app.SignalContext(context.Background(), logger)
	defer cancel()

	if err := app.Run(ctx, cfg, logger); err != nil {
		if errors.Is(err, app.ErrNoArticles) {
			return fmt.Errorf("no articles extracted, see %s for details", cfg.Observability.LogPath)
		}
		return err
	}
	return nil
}

// loadConfig loads the given file, falls back to ./config.yaml, and runs on
// defaults plus environment when neither exists.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return config.LoadConfig("config.yaml")
	}
	return config.DefaultConfig()
}

// applyFlags overlays explicitly set flags on top of the loaded config.
func applyFlags(cfg *config.Config, cmd *cobra.Command, flags *extractFlags) {
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = &flags.headless
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = flags.outputDir
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.Crawl.MaxPages = flags.maxPages
	}
	if cmd.Flags().Changed("max-articles") {
		cfg.Crawl.MaxArticles = flags.maxArticles
	}
	if cmd.Flags().Changed("skip-details") {
		cfg.Crawl.SkipDetails = flags.skipDetails
	}
	if flags.debug {
		cfg.Observability.LogLevel = "debug"
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("note-stats %s (commit %s)\n", version, commit)
		},
	}
}
