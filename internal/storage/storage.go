package storage

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Sink is a destination for the final enriched dataset.
type Sink interface {
	// Write persists the full dataset.
	Write(ctx context.Context, records []types.EnrichedRecord) error

	// Close releases resources.
	Close(ctx context.Context) error

	// Name returns the sink identifier.
	Name() string
}

// CSVSink writes the enriched dataset to a CSV file.
type CSVSink struct {
	path   string
	logger *slog.Logger
}

// NewCSVSink creates a CSV sink writing to path.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		path:   path,
		logger: logger.With("component", "csv_sink"),
	}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, records []types.EnrichedRecord) error {
	if err := WriteCSV(s.path, EnrichedHeader, EncodeEnriched(records)); err != nil {
		return err
	}
	s.logger.Info("enriched dataset written", "path", s.path, "rows", len(records))
	return nil
}

func (s *CSVSink) Close(context.Context) error { return nil }
