package fetcher

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/PlayaETL/internal/parser"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// DetailFetcher downloads and parses a single product page.
type DetailFetcher struct {
	getter Getter
	parser parser.Parser
	logger *slog.Logger
}

// NewDetailFetcher creates a detail fetcher over the given getter and parser.
func NewDetailFetcher(getter Getter, p parser.Parser, logger *slog.Logger) *DetailFetcher {
	return &DetailFetcher{
		getter: getter,
		parser: p,
		logger: logger.With("component", "detail_fetcher"),
	}
}

// FetchDetail returns the parsed product, or an error when the page could not
// be retrieved. Callers treat the error as a skippable per-item failure.
func (d *DetailFetcher) FetchDetail(ctx context.Context, productURL string) (*types.ProductDetail, error) {
	d.logger.Info("fetching product detail", "url", productURL)

	resp, err := d.getter.Get(ctx, productURL)
	if err != nil {
		d.logger.Error("product page fetch failed", "url", productURL, "error", err)
		return nil, err
	}

	detail, err := d.parser.Parse(resp)
	if err != nil {
		d.logger.Error("product page parse failed", "url", productURL, "error", err)
		return nil, err
	}
	detail.URLProduct = productURL

	d.logger.Info("product detail scraped", "url", productURL)
	return detail, nil
}
