package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PlayaETL/internal/ai"
	"github.com/IshaanNene/PlayaETL/internal/browser"
	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/crawler"
	"github.com/IshaanNene/PlayaETL/internal/enrich"
	"github.com/IshaanNene/PlayaETL/internal/fetcher"
	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/parser"
	"github.com/IshaanNene/PlayaETL/internal/pipeline"
	"github.com/IshaanNene/PlayaETL/internal/scrape"
	"github.com/IshaanNene/PlayaETL/internal/storage"
	"github.com/IshaanNene/PlayaETL/internal/transform"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full scrape, transform, enrich and load pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(func(a *app) (*pipeline.Driver, error) {
				orch, err := a.orchestrator()
				if err != nil {
					return nil, err
				}
				sink, err := a.sink()
				if err != nil {
					return nil, err
				}
				return pipeline.New(orch, a.transformer(), a.enricher(), sink, a.metrics, a.logger), nil
			})
		},
	}
	addScrapeFlags(cmd)
	addEnrichFlags(cmd)
	return cmd
}

func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl the catalog and fetch product details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(func(a *app) (*pipeline.Driver, error) {
				orch, err := a.orchestrator()
				if err != nil {
					return nil, err
				}
				return pipeline.New(orch, nil, nil, nil, a.metrics, a.logger), nil
			})
		},
	}
	addScrapeFlags(cmd)
	return cmd
}

func transformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform [details.csv]",
		Short: "Clean prices and separate duplicates of a raw detail dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(func(a *app) (*pipeline.Driver, error) {
				path := a.cfg.Storage.DetailsFile
				if len(args) == 1 {
					path = args[0]
				}
				return pipeline.New(existingFile(path), a.transformer(), nil, nil, a.metrics, a.logger), nil
			})
		},
	}
}

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich [deduplicated.csv]",
		Short: "Enrich a deduplicated dataset and load the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(func(a *app) (*pipeline.Driver, error) {
				path := a.cfg.Storage.DeduplicatedFile
				if len(args) == 1 {
					path = args[0]
				}
				sink, err := a.sink()
				if err != nil {
					return nil, err
				}
				return pipeline.New(existingFile(path), deduplicatedReader{}, a.enricher(), sink, a.metrics, a.logger), nil
			})
		},
	}
	addEnrichFlags(cmd)
	return cmd
}

// execute loads the config, builds the app and runs the driver returned by
// build until it finishes or a signal arrives.
func execute(build func(a *app) (*pipeline.Driver, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser, err := setupLogger(&cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, cfg, logger)
	defer a.close()

	if cfg.Metrics.Enabled {
		a.metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	d, err := build(a)
	if err != nil {
		logger.Error("setup failed", "error", err)
		return err
	}

	// The driver logs every outcome itself; only setup errors fail the command.
	d.Run(ctx)
	return nil
}

// app holds the shared components of one command invocation.
type app struct {
	ctx     context.Context
	cfg     *config.Config
	metrics *observability.Metrics
	logger  *slog.Logger
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) *app {
	return &app{
		ctx:     ctx,
		cfg:     cfg,
		metrics: observability.NewMetrics(logger),
		logger:  logger,
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.Background()); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func (a *app) userAgents() (*fetcher.UserAgentPool, error) {
	if len(a.cfg.Fetcher.UserAgents) > 0 {
		return fetcher.NewUserAgentPool(a.cfg.Fetcher.UserAgents), nil
	}
	return fetcher.LoadUserAgents(a.cfg.Fetcher.UserAgentsFile, a.logger)
}

// orchestrator wires the listing crawler and the detail fetcher.
func (a *app) orchestrator() (*scrape.Orchestrator, error) {
	agents, err := a.userAgents()
	if err != nil {
		return nil, err
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(&a.cfg.Fetcher, agents, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return httpFetcher.Close() })

	open := func(ctx context.Context) (browser.Driver, error) {
		return browser.Open(ctx, &a.cfg.Browser, httpFetcher, a.logger)
	}
	listing := crawler.New(&a.cfg.Catalog, open, a.logger, crawler.WithMetrics(a.metrics))

	productParser := parser.NewProductParser(parser.DefaultDetailSelectors(), a.logger)
	details := fetcher.NewDetailFetcher(httpFetcher, productParser, a.logger)

	return scrape.New(a.cfg, listing, details, a.logger, scrape.WithMetrics(a.metrics)), nil
}

func (a *app) transformer() *transform.Transformer {
	return transform.New(&a.cfg.Storage, a.metrics, a.logger)
}

func (a *app) enricher() *enrich.Enricher {
	client := ai.NewLLMClient(a.cfg.AI, a.logger)
	return enrich.New(&a.cfg.AI, client, a.logger, enrich.WithMetrics(a.metrics))
}

// sink builds the CSV sink plus any configured JSONL and database sinks.
func (a *app) sink() (storage.Sink, error) {
	sinks := []storage.Sink{storage.NewCSVSink(a.cfg.Storage.EnrichedFile, a.logger)}
	if a.cfg.Storage.JSONLFile != "" {
		sinks = append(sinks, storage.NewJSONLSink(a.cfg.Storage.JSONLFile, a.logger))
	}

	if mc := a.cfg.Storage.Mongo; mc.URI != "" {
		s, err := storage.NewMongoSink(a.ctx, mc.URI, mc.Database, mc.Collection, a.logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if pc := a.cfg.Storage.Postgres; pc.DSN != "" {
		s, err := storage.NewPostgresSink(a.ctx, pc.DSN, pc.Table, a.logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	var sink storage.Sink = sinks[0]
	if len(sinks) > 1 {
		sink = storage.NewMultiSink(sinks, a.logger)
	}
	a.closers = append(a.closers, sink.Close)
	return sink, nil
}

// existingFile stands in for the scrape stage when a command starts from a
// dataset already on disk.
type existingFile string

func (f existingFile) Run(context.Context) (string, error) {
	if _, err := os.Stat(string(f)); err != nil {
		return "", err
	}
	return string(f), nil
}

// deduplicatedReader stands in for the transform stage by loading a
// previously written deduplicated dataset.
type deduplicatedReader struct{}

func (deduplicatedReader) Run(path string) ([]types.TransformedRecord, error) {
	table, err := storage.ReadCSV(path, "name", "family")
	if err != nil {
		return nil, err
	}
	return storage.DecodeTransformed(table), nil
}
