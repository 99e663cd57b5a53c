// Package enrich adds model judgments to the deduplicated product dataset.
//
// Rows are processed in fixed-size batches. Each batch makes one relation call
// and one clarity call, and a failed call only nulls the fields it owns for
// that batch. The output always has the input's rows in the input's order.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/ai"
	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/pacing"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Enricher runs the batched enrichment stage.
type Enricher struct {
	gen           ai.Generator
	batchSize     int
	relationDelay time.Duration
	clarityDelay  time.Duration
	sleep         pacing.Sleeper
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithSleeper replaces the wall-clock pacing between model calls.
func WithSleeper(s pacing.Sleeper) Option {
	return func(e *Enricher) { e.sleep = s }
}

// WithMetrics records batch counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Enricher) { e.metrics = m }
}

// New creates an Enricher using the batch size and delays from cfg.
func New(cfg *config.AIConfig, gen ai.Generator, logger *slog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		gen:           gen,
		batchSize:     cfg.BatchSize,
		relationDelay: cfg.RelationDelay,
		clarityDelay:  cfg.ClarityDelay,
		sleep:         pacing.Sleep,
		logger:        logger.With("component", "enrich"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observability.NewMetrics(logger)
	}
	return e
}

// Enrich returns one EnrichedRecord per input row, in input order.
//
// Model failures never fail the call. An error is returned only for an
// unusable batch size or when ctx is cancelled; in the latter case the rows
// merged so far are returned too.
func (e *Enricher) Enrich(ctx context.Context, rows []types.TransformedRecord) ([]types.EnrichedRecord, error) {
	if e.batchSize <= 0 {
		return nil, fmt.Errorf("enrich: batch size must be positive, got %d", e.batchSize)
	}

	out := make([]types.EnrichedRecord, len(rows))
	for i, r := range rows {
		out[i].TransformedRecord = r
	}

	total := (len(rows) + e.batchSize - 1) / e.batchSize
	e.logger.Info("enriching products", "rows", len(rows), "batches", total, "batch_size", e.batchSize)

	for start, idx := 0, 1; start < len(rows); start, idx = start+e.batchSize, idx+1 {
		end := min(start+e.batchSize, len(rows))
		b := &Batch{Index: idx, Start: start, End: end}

		if err := e.runBatch(ctx, b, rows[start:end], out[start:end]); err != nil {
			return out, err
		}
		e.logger.Info("batch processed", "batch", idx, "of", total,
			"relation_ok", b.RelationErr == nil, "clarity_ok", b.ClarityErr == nil)
	}
	return out, nil
}

// runBatch drives one batch through every state and writes its results into
// dst, which covers exactly the batch's rows.
func (e *Enricher) runBatch(ctx context.Context, b *Batch, rows []types.TransformedRecord, dst []types.EnrichedRecord) error {
	names := make([]string, len(rows))
	families := make([]string, len(rows))
	for i, r := range rows {
		names[i] = types.Deref(r.Name)
		families[i] = types.Deref(r.Family)
	}

	e.transition(b, StateRelationRequested)
	answer, err := e.gen.Generate(ctx, RelationPrompt(names, families))
	if err != nil {
		b.RelationErr = err
		e.metrics.RelationFailures.Add(1)
		e.logger.Error("relation check failed", "batch", b.Index, "error", err)
	} else {
		b.Relation = ParseRelation(answer, b.Len(), e.logger)
	}
	e.transition(b, StateRelationResolved)

	if err := e.sleep(ctx, e.relationDelay); err != nil {
		return err
	}

	e.transition(b, StateClarityRequested)
	answer, err = e.gen.Generate(ctx, ClarityPrompt(names))
	if err != nil {
		b.ClarityErr = err
		e.metrics.ClarityFailures.Add(1)
		e.logger.Error("clarity check failed", "batch", b.Index, "error", err)
	} else {
		b.Clarity = ParseClarity(answer, b.Len(), e.logger)
	}
	e.transition(b, StateClarityResolved)

	merge(b, dst)
	e.transition(b, StateMerged)
	e.metrics.BatchesMerged.Add(1)

	return e.sleep(ctx, e.clarityDelay)
}

func (e *Enricher) transition(b *Batch, to BatchState) {
	from := b.State
	if err := b.advance(to); err != nil {
		e.logger.Error("batch state out of order", "batch", b.Index, "error", err)
		b.State = to
		return
	}
	e.logger.Debug("batch state", "batch", b.Index, "from", from, "to", to)
}

// merge copies the batch results into dst. Failed calls leave nil fields.
func merge(b *Batch, dst []types.EnrichedRecord) {
	for i := range dst {
		if b.Relation != nil {
			dst[i].RelationFlag = b.Relation[i]
		}
		if b.Clarity != nil {
			dst[i].ClarityFlag = types.StringPtr(b.Clarity[i].Flag)
			dst[i].SuggestedDescription = types.StringPtr(b.Clarity[i].Suggestion)
		}
	}
}

