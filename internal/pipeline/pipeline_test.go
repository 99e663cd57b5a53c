package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubScraper struct {
	path string
	err  error
}

func (s stubScraper) Run(context.Context) (string, error) { return s.path, s.err }

type stubTransformer struct {
	rows   []types.TransformedRecord
	err    error
	called bool
}

func (s *stubTransformer) Run(string) ([]types.TransformedRecord, error) {
	s.called = true
	return s.rows, s.err
}

type stubEnricher struct {
	panicWith any
}

func (s stubEnricher) Enrich(_ context.Context, rows []types.TransformedRecord) ([]types.EnrichedRecord, error) {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	out := make([]types.EnrichedRecord, len(rows))
	for i, r := range rows {
		out[i].TransformedRecord = r
	}
	return out, nil
}

type stubSink struct {
	err     error
	written int
}

func (s *stubSink) Name() string { return "stub" }
func (s *stubSink) Write(_ context.Context, records []types.EnrichedRecord) error {
	if s.err != nil {
		return s.err
	}
	s.written += len(records)
	return nil
}
func (s *stubSink) Close(context.Context) error { return nil }

func twoRows() []types.TransformedRecord {
	return []types.TransformedRecord{{URLProduct: "a"}, {URLProduct: "b"}}
}

func TestDriverCompletes(t *testing.T) {
	sink := &stubSink{}
	metrics := observability.NewMetrics(testLogger)
	d := New(stubScraper{path: "raw.csv"}, &stubTransformer{rows: twoRows()}, stubEnricher{}, sink, metrics, testLogger)

	if got := d.Run(context.Background()); got != OutcomeCompleted {
		t.Fatalf("outcome = %s, want completed", got)
	}
	if sink.written != 2 {
		t.Errorf("sink received %d rows, want 2", sink.written)
	}
	if metrics.RowsPersisted.Load() != 2 {
		t.Errorf("rows persisted = %d", metrics.RowsPersisted.Load())
	}
}

func TestDriverNoOutputStops(t *testing.T) {
	tr := &stubTransformer{}
	d := New(stubScraper{err: types.ErrNoOutput}, tr, stubEnricher{}, &stubSink{}, nil, testLogger)

	if got := d.Run(context.Background()); got != OutcomeNoOutput {
		t.Fatalf("outcome = %s, want no_output", got)
	}
	if tr.called {
		t.Error("transform must not run without a scraped dataset")
	}
}

func TestDriverClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"missing file", &types.StorageError{Backend: "csv", Path: "x.csv", Err: &fs.PathError{Op: "open", Path: "x.csv", Err: fs.ErrNotExist}}, OutcomeRecoverable},
		{"io error", &types.StorageError{Backend: "csv", Path: "x.csv", Err: errors.New("disk full")}, OutcomeRecoverable},
		{"path error", &fs.PathError{Op: "write", Path: "x", Err: errors.New("read-only file system")}, OutcomeRecoverable},
		{"cancelled", fmt.Errorf("sleep: %w", context.Canceled), OutcomeInterrupted},
		{"missing column", fmt.Errorf("raw.csv: %w: url_product", types.ErrMissingColumn), OutcomeFailed},
		{"unexpected", errors.New("boom"), OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(stubScraper{path: "raw.csv"}, &stubTransformer{err: tt.err}, stubEnricher{}, &stubSink{}, nil, testLogger)
			if got := d.Run(context.Background()); got != tt.want {
				t.Errorf("outcome = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDriverLoadFailure(t *testing.T) {
	sink := &stubSink{err: &types.StorageError{Backend: "mongodb", Err: errors.New("connection reset")}}
	d := New(stubScraper{path: "raw.csv"}, &stubTransformer{rows: twoRows()}, stubEnricher{}, sink, nil, testLogger)

	if got := d.Run(context.Background()); got != OutcomeRecoverable {
		t.Errorf("outcome = %s, want recoverable_error", got)
	}
}

func TestDriverRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	d := New(stubScraper{path: "raw.csv"}, &stubTransformer{rows: twoRows()}, stubEnricher{panicWith: "index out of range"}, &stubSink{}, nil, logger)

	if got := d.Run(context.Background()); got != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", got)
	}
	out := buf.String()
	if !strings.Contains(out, "unexpected panic in pipeline") || !strings.Contains(out, "stack=") {
		t.Errorf("panic should be logged with a stack trace:\n%s", out)
	}
	if !strings.Contains(out, "level=ERROR+4") {
		t.Errorf("panic should be logged at the critical level:\n%s", out)
	}
}

func TestDriverStopsAtNilStage(t *testing.T) {
	tr := &stubTransformer{rows: twoRows()}
	d := New(stubScraper{path: "raw.csv"}, tr, nil, nil, nil, testLogger)

	if got := d.Run(context.Background()); got != OutcomeCompleted {
		t.Fatalf("outcome = %s, want completed", got)
	}
	if !tr.called {
		t.Error("transform should run before stopping")
	}
}
