// Package pipeline sequences the scrape, transform, enrich and load stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/storage"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// LevelCritical is logged for failures nobody anticipated.
const LevelCritical = slog.Level(12)

// Scraper produces the raw detail dataset and returns its path.
type Scraper interface {
	Run(ctx context.Context) (string, error)
}

// Transformer cleans and deduplicates a raw detail dataset.
type Transformer interface {
	Run(rawPath string) ([]types.TransformedRecord, error)
}

// Enricher adds model judgments to transformed rows.
type Enricher interface {
	Enrich(ctx context.Context, rows []types.TransformedRecord) ([]types.EnrichedRecord, error)
}

// Outcome summarises how a run ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeNoOutput
	OutcomeInterrupted
	OutcomeRecoverable
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeNoOutput:
		return "no_output"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeRecoverable:
		return "recoverable_error"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Driver runs the stages in strict sequence.
type Driver struct {
	scraper     Scraper
	transformer Transformer
	enricher    Enricher
	sink        storage.Sink
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// New creates a Driver. metrics may be nil. A nil transformer, enricher or
// sink ends the run successfully after the stage before it.
func New(scraper Scraper, transformer Transformer, enricher Enricher, sink storage.Sink, metrics *observability.Metrics, logger *slog.Logger) *Driver {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &Driver{
		scraper:     scraper,
		transformer: transformer,
		enricher:    enricher,
		sink:        sink,
		metrics:     metrics,
		logger:      logger.With("component", "pipeline"),
	}
}

// Run executes the pipeline. Errors and panics are logged here and reported
// only through the returned Outcome.
func (d *Driver) Run(ctx context.Context) (outcome Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Log(ctx, LevelCritical, "unexpected panic in pipeline",
				"type", fmt.Sprintf("%T", r),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			outcome = OutcomeFailed
		}
		d.logger.Info("pipeline finished", "outcome", outcome, "elapsed", time.Since(start).Round(time.Millisecond))
	}()

	d.logger.Info("starting ETL pipeline")
	outcome = d.classify(ctx, d.run(ctx))
	d.metrics.LogSummary()
	return outcome
}

func (d *Driver) run(ctx context.Context) error {
	d.logger.Info("extraction phase")
	rawPath, err := d.scraper.Run(ctx)
	if err != nil {
		return &types.PipelineError{Stage: "scrape", Err: err}
	}

	if d.transformer == nil {
		d.logger.Info("stopping after extraction", "path", rawPath)
		return nil
	}

	d.logger.Info("transformation phase")
	rows, err := d.transformer.Run(rawPath)
	if err != nil {
		return &types.PipelineError{Stage: "transform", Err: err}
	}

	if d.enricher == nil {
		d.logger.Info("stopping after transformation", "rows", len(rows))
		return nil
	}

	d.logger.Info("enrichment phase")
	enriched, err := d.enricher.Enrich(ctx, rows)
	if err != nil {
		return &types.PipelineError{Stage: "enrich", Err: err}
	}

	if d.sink == nil {
		d.logger.Info("stopping after enrichment", "rows", len(enriched))
		return nil
	}

	d.logger.Info("load phase")
	if err := d.sink.Write(ctx, enriched); err != nil {
		return &types.PipelineError{Stage: "load", Err: err}
	}
	d.metrics.RowsPersisted.Add(int64(len(enriched)))

	d.logger.Info("ETL pipeline completed", "rows", len(enriched))
	return nil
}

// classify logs err at the severity its kind deserves.
func (d *Driver) classify(ctx context.Context, err error) Outcome {
	if err == nil {
		return OutcomeCompleted
	}

	stage := ""
	var perr *types.PipelineError
	if errors.As(err, &perr) {
		stage = perr.Stage
	}

	var (
		storageErr *types.StorageError
		pathErr    *fs.PathError
	)
	switch {
	case errors.Is(err, types.ErrNoOutput):
		d.logger.Warn("scraper produced no dataset, stopping", "stage", stage)
		return OutcomeNoOutput

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		d.logger.Warn("pipeline interrupted", "stage", stage, "error", err)
		return OutcomeInterrupted

	case errors.Is(err, fs.ErrNotExist):
		d.logger.Error("file not found", "stage", stage, "error", err)
		return OutcomeRecoverable

	case errors.As(err, &storageErr) || errors.As(err, &pathErr):
		d.logger.Error("input/output error", "stage", stage, "error", err)
		return OutcomeRecoverable

	default:
		d.logger.Log(ctx, LevelCritical, "unexpected error in ETL pipeline",
			"stage", stage,
			"type", fmt.Sprintf("%T", rootCause(err)),
			"error", err,
			"stack", string(debug.Stack()),
		)
		return OutcomeFailed
	}
}

// rootCause follows single-error Unwrap chains to the innermost error.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
