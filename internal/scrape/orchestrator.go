// Package scrape sequences the listing crawl and the detail fetch and persists
// both raw datasets.
package scrape

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/pacing"
	"github.com/IshaanNene/PlayaETL/internal/storage"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// ListingSource produces the product summaries of the catalog.
type ListingSource interface {
	Crawl(ctx context.Context) ([]types.ProductSummary, error)
}

// DetailSource fetches one product page.
type DetailSource interface {
	FetchDetail(ctx context.Context, productURL string) (*types.ProductDetail, error)
}

// Orchestrator runs the listing phase and then the detail phase.
type Orchestrator struct {
	listing ListingSource
	details DetailSource
	storage *config.StorageConfig
	fetcher *config.FetcherConfig
	sleep   pacing.Sleeper
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the wall-clock delay between detail requests.
func WithSleeper(s pacing.Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithMetrics records detail counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator.
func New(cfg *config.Config, listing ListingSource, details DetailSource, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		listing: listing,
		details: details,
		storage: &cfg.Storage,
		fetcher: &cfg.Fetcher,
		sleep:   pacing.Sleep,
		logger:  logger.With("component", "scrape"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetrics(logger)
	}
	return o
}

// Run scrapes the catalog and returns the path of the detail dataset.
// It returns types.ErrNoOutput when no listing or no detail was collected.
func (o *Orchestrator) Run(ctx context.Context) (string, error) {
	o.logger.Info("collecting product list")
	summaries, err := o.listing.Crawl(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		o.logger.Warn("listing crawl ended early", "collected", len(summaries), "error", err)
	}
	if len(summaries) == 0 {
		o.logger.Warn("no product URLs found, check the listing crawler")
		return "", types.ErrNoOutput
	}

	if err := storage.WriteCSV(o.storage.ListingFile, storage.ListingHeader, storage.EncodeListing(summaries)); err != nil {
		return "", err
	}
	o.logger.Info("product list saved", "path", o.storage.ListingFile, "rows", len(summaries))

	table, err := storage.ReadCSV(o.storage.ListingFile, storage.ListingHeader...)
	if err != nil {
		return "", err
	}
	listed := storage.DecodeListing(table)

	o.logger.Info("collecting product details", "products", len(listed))
	var details []types.ProductDetail
	for _, item := range listed {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		detail, err := o.details.FetchDetail(ctx, item.URL)
		if err != nil {
			o.metrics.DetailsFailed.Add(1)
			o.logger.Warn("product detail unavailable", "url", item.URL, "error", err)
			continue
		}

		// Listing values win: product pages rarely expose them.
		detail.Rating = item.Rating
		detail.ReviewCount = item.ReviewCount
		details = append(details, *detail)
		o.metrics.DetailsFetched.Add(1)

		if err := o.sleep(ctx, o.fetcher.DetailDelay); err != nil {
			return "", err
		}
	}

	if len(details) == 0 {
		o.logger.Warn("no product details collected, check the detail fetcher")
		return "", types.ErrNoOutput
	}

	if err := storage.WriteCSV(o.storage.DetailsFile, storage.DetailHeader, storage.EncodeDetails(details)); err != nil {
		return "", err
	}
	o.logger.Info("product details saved", "path", o.storage.DetailsFile, "rows", len(details),
		"skipped", len(listed)-len(details))
	return o.storage.DetailsFile, nil
}

