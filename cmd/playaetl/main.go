package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/pipeline"
)

var (
	cfgFile   string
	verbose   bool
	pages     int
	baseURL   string
	driver    string
	batchSize int
	pageDelay string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "playaetl",
		Short: "PlayaETL: seasonal catalog extract, transform and enrich",
		Long: `PlayaETL scrapes a seasonal e-commerce catalog, cleans and deduplicates the
product dataset, and enriches every product with model-generated judgments.

Stages:
  • Listing crawl over a headless browser (rod, chromedp or static HTML)
  • Product detail fetch with rotating User-Agents
  • Price cleaning and exact-duplicate separation
  • Batched relation and clarity checks via an LLM
  • CSV output, optionally mirrored to MongoDB and PostgreSQL`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(transformCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addScrapeFlags registers the flags that shape the listing crawl.
func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&pages, "pages", "p", 0, "number of listing pages to crawl (0 = use config)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "catalog listing URL")
	cmd.Flags().StringVar(&driver, "driver", "", "listing driver: rod, chromedp, static")
	cmd.Flags().StringVar(&pageDelay, "page-delay", "", "pause between listing pages")
}

func addEnrichFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "rows per enrichment batch (0 = use config)")
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if pages > 0 {
		cfg.Catalog.Pages = pages
	}
	if baseURL != "" {
		cfg.Catalog.BaseURL = baseURL
	}
	if driver != "" {
		cfg.Browser.Driver = strings.ToLower(driver)
	}
	if pageDelay != "" {
		if d, err := time.ParseDuration(pageDelay); err == nil {
			cfg.Catalog.PageDelay = d
		}
	}
	if batchSize > 0 {
		cfg.AI.BatchSize = batchSize
	}
}

// setupLogger creates a structured logger from the logging config.
// When output names a file the log is written there and to stderr.
// The returned closer releases that file.
func setupLogger(cfg *config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: renameCritical,
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// renameCritical prints pipeline.LevelCritical as CRITICAL instead of ERROR+4.
func renameCritical(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= pipeline.LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}
