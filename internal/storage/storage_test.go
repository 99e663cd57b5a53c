package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestWriteReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "list.csv")
	rows := [][]string{{"https://a", "4.5", "12"}, {"https://b", "0", "0"}}

	if err := WriteCSV(path, ListingHeader, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	table, err := ReadCSV(path, "url")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := DecodeListing(table)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].URL != "https://a" || got[0].Rating != 4.5 || got[0].ReviewCount != 12 {
		t.Errorf("unexpected first row: %+v", got[0])
	}
}

func TestWriteCSVLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	for i := 0; i < 2; i++ {
		if err := WriteCSV(path, []string{"a"}, [][]string{{"1"}}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.csv" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only out.csv, got %v", names)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	if err := WriteCSV(path, []string{"name"}, nil); err != nil {
		t.Fatal(err)
	}

	_, err := ReadCSV(path, "name", "family")
	if !errors.Is(err, types.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "family") {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	var storageErr *types.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %T: %v", err, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("StorageError should unwrap to os.ErrNotExist")
	}
}

func sampleEnriched() []types.EnrichedRecord {
	return []types.EnrichedRecord{
		{
			TransformedRecord: types.TransformedRecord{
				Name:          types.StringPtr("Toalla de playa, 90x180"),
				Family:        types.StringPtr("Toallas"),
				ReviewCount:   3,
				Rating:        4.5,
				InternetPrice: types.FloatPtr(39.9),
				NormalPrice:   types.FloatPtr(59.9),
				URLProduct:    "https://example.com/p/1",
				PriceDiffPct:  types.FloatPtr(33.388981636060105),
			},
			RelationFlag:         types.BoolPtr(true),
			ClarityFlag:          types.StringPtr("no"),
			SuggestedDescription: types.StringPtr("Descripción adecuada"),
		},
		{
			TransformedRecord: types.TransformedRecord{
				URLProduct: "https://example.com/p/2",
			},
		},
	}
}

func TestCSVSinkPreservesNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.csv")
	sink := NewCSVSink(path, testLogger)

	if err := sink.Write(context.Background(), sampleEnriched()); err != nil {
		t.Fatalf("write: %v", err)
	}

	table, err := ReadCSV(path, EnrichedHeader...)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := DecodeEnriched(table)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}

	first := got[0]
	if types.Deref(first.Name) != "Toalla de playa, 90x180" {
		t.Errorf("name = %q", types.Deref(first.Name))
	}
	if first.RelationFlag == nil || !*first.RelationFlag {
		t.Error("relation flag should round-trip as true")
	}
	if first.PriceDiffPct == nil || *first.PriceDiffPct != 33.388981636060105 {
		t.Errorf("price diff lost precision: %v", first.PriceDiffPct)
	}

	second := got[1]
	if second.Name != nil || second.NormalPrice != nil || second.PriceDiffPct != nil {
		t.Error("empty cells should decode to nil")
	}
	if second.RelationFlag != nil || second.ClarityFlag != nil || second.SuggestedDescription != nil {
		t.Error("failed enrichment fields should stay nil")
	}
}

func TestEnrichedDocumentNulls(t *testing.T) {
	doc := enrichedDocument(sampleEnriched()[1], time.Unix(0, 0))

	fields := make(map[string]any, len(doc))
	for _, e := range doc {
		fields[e.Key] = e.Value
	}
	if v, ok := fields["relation_flag"].(*bool); !ok || v != nil {
		t.Errorf("relation_flag should be a nil *bool, got %#v", fields["relation_flag"])
	}
	if fields["url_product"] != "https://example.com/p/2" {
		t.Errorf("url_product = %v", fields["url_product"])
	}
	if _, ok := fields["_loaded_at"]; !ok {
		t.Error("document should carry _loaded_at")
	}
}

type fakeSink struct {
	name    string
	err     error
	written int
	closed  bool
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Write(_ context.Context, records []types.EnrichedRecord) error {
	if s.err != nil {
		return s.err
	}
	s.written += len(records)
	return nil
}

func (s *fakeSink) Close(context.Context) error {
	s.closed = true
	return nil
}

func TestMultiSinkWritesAll(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b", err: boom}
	c := &fakeSink{name: "c"}

	m := NewMultiSink([]Sink{a, b, c}, testLogger)
	err := m.Write(context.Background(), sampleEnriched())
	if !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if a.written != 2 || c.written != 2 {
		t.Errorf("healthy sinks should still be written: a=%d c=%d", a.written, c.written)
	}

	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed || !b.closed || !c.closed {
		t.Error("every sink should be closed")
	}
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enriched.jsonl")
	sink := NewJSONLSink(path, testLogger)

	if err := sink.Write(context.Background(), sampleEnriched()); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"relation_flag":true`) || !strings.Contains(lines[0], `"name":"Toalla de playa, 90x180"`) {
		t.Errorf("unexpected first line: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"relation_flag":null`) || !strings.Contains(lines[1], `"price_diff_pct":null`) {
		t.Errorf("nil fields should be null: %s", lines[1])
	}
}
