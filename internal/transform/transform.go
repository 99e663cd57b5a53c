// Package transform cleans the raw detail dataset and separates duplicates.
package transform

import (
	"log/slog"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/storage"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// requiredColumns are the raw columns price cleaning cannot do without.
var requiredColumns = []string{"internet_price", "normal_price", "url_product"}

// Transformer runs the transform stage over a persisted detail dataset.
type Transformer struct {
	cfg     *config.StorageConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a Transformer. metrics may be nil.
func New(cfg *config.StorageConfig, metrics *observability.Metrics, logger *slog.Logger) *Transformer {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &Transformer{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("component", "transform"),
	}
}

// Run reads rawPath, cleans prices, persists the duplicate and deduplicated
// datasets and returns the deduplicated records.
func (t *Transformer) Run(rawPath string) ([]types.TransformedRecord, error) {
	t.logger.Info("transforming scraped data", "path", rawPath)

	table, err := storage.ReadCSV(rawPath, requiredColumns...)
	if err != nil {
		return nil, err
	}

	cleaned := CleanPrices(storage.DecodeDetails(table), t.logger)
	duplicates, unique := HandleDuplicates(cleaned)

	if err := storage.WriteCSV(t.cfg.DuplicatesFile, storage.TransformedHeader, storage.EncodeTransformed(duplicates)); err != nil {
		return nil, err
	}
	if err := storage.WriteCSV(t.cfg.DeduplicatedFile, storage.TransformedHeader, storage.EncodeTransformed(unique)); err != nil {
		return nil, err
	}

	t.metrics.DuplicateRows.Add(int64(len(duplicates)))
	t.metrics.UniqueRows.Add(int64(len(unique)))
	t.logger.Info("transform complete",
		"rows", len(cleaned),
		"duplicates", len(duplicates),
		"unique", len(unique),
		"deduplicated_path", t.cfg.DeduplicatedFile,
	)
	return unique, nil
}
