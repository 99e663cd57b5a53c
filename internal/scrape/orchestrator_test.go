package scrape

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/storage"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeListing struct {
	items []types.ProductSummary
	err   error
}

func (f fakeListing) Crawl(context.Context) ([]types.ProductSummary, error) {
	return f.items, f.err
}

// fakeDetails returns a canned product for every URL except those in fail.
type fakeDetails struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeDetails) FetchDetail(_ context.Context, productURL string) (*types.ProductDetail, error) {
	f.calls = append(f.calls, productURL)
	if f.fail[productURL] {
		return nil, &types.FetchError{URL: productURL, StatusCode: 404, Err: errors.New("not found")}
	}
	return &types.ProductDetail{
		Name:          types.StringPtr("Producto " + productURL),
		InternetPrice: types.StringPtr("10"),
		Rating:        1,
		ReviewCount:   99,
		URLProduct:    productURL,
	}, nil
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.ListingFile = filepath.Join(dir, "raw", "products_list.csv")
	cfg.Storage.DetailsFile = filepath.Join(dir, "raw", "products_details.csv")
	return cfg
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestOrchestratorSkipsFailedDetails(t *testing.T) {
	cfg := testConfig(t.TempDir())
	listing := fakeListing{items: []types.ProductSummary{
		{URL: "https://shop.example.com/a", Rating: 4.5, ReviewCount: 10},
		{URL: "https://shop.example.com/b", Rating: 3, ReviewCount: 2},
	}}
	details := &fakeDetails{fail: map[string]bool{"https://shop.example.com/a": true}}

	var delays []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	o := New(cfg, listing, details, testLogger, WithSleeper(sleeper))
	path, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if path != cfg.Storage.DetailsFile {
		t.Errorf("path = %q, want %q", path, cfg.Storage.DetailsFile)
	}

	listTable, err := storage.ReadCSV(cfg.Storage.ListingFile, storage.ListingHeader...)
	if err != nil {
		t.Fatalf("read listing: %v", err)
	}
	if len(listTable.Rows) != 2 {
		t.Errorf("listing should keep every summary, got %d rows", len(listTable.Rows))
	}

	table, err := storage.ReadCSV(path, storage.DetailHeader...)
	if err != nil {
		t.Fatalf("read details: %v", err)
	}
	got := storage.DecodeDetails(table)
	if len(got) != 1 {
		t.Fatalf("expected 1 detail row, got %d", len(got))
	}
	if got[0].URLProduct != "https://shop.example.com/b" {
		t.Errorf("url_product = %q", got[0].URLProduct)
	}
	if got[0].Rating != 3 || got[0].ReviewCount != 2 {
		t.Errorf("listing rating and reviews should win, got %v / %d", got[0].Rating, got[0].ReviewCount)
	}

	if len(delays) != 1 || delays[0] != cfg.Fetcher.DetailDelay {
		t.Errorf("expected one detail delay after the successful fetch, got %v", delays)
	}
	if o.metrics.DetailsFailed.Load() != 1 || o.metrics.DetailsFetched.Load() != 1 {
		t.Errorf("metrics: failed=%d fetched=%d", o.metrics.DetailsFailed.Load(), o.metrics.DetailsFetched.Load())
	}
}

func TestOrchestratorNoListing(t *testing.T) {
	cfg := testConfig(t.TempDir())
	details := &fakeDetails{}

	_, err := New(cfg, fakeListing{}, details, testLogger, WithSleeper(noSleep)).Run(context.Background())
	if !errors.Is(err, types.ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
	if len(details.calls) != 0 {
		t.Error("detail fetcher should not be called without a listing")
	}
	if _, err := os.Stat(cfg.Storage.ListingFile); !errors.Is(err, os.ErrNotExist) {
		t.Error("no listing file should be written")
	}
}

func TestOrchestratorAllDetailsFail(t *testing.T) {
	cfg := testConfig(t.TempDir())
	listing := fakeListing{items: []types.ProductSummary{{URL: "x"}}}
	details := &fakeDetails{fail: map[string]bool{"x": true}}

	_, err := New(cfg, listing, details, testLogger, WithSleeper(noSleep)).Run(context.Background())
	if !errors.Is(err, types.ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
	if _, err := os.Stat(cfg.Storage.DetailsFile); !errors.Is(err, os.ErrNotExist) {
		t.Error("no details file should be written")
	}
}

func TestOrchestratorPartialListing(t *testing.T) {
	cfg := testConfig(t.TempDir())
	listing := fakeListing{
		items: []types.ProductSummary{{URL: "https://shop.example.com/a"}},
		err:   errors.New("browser crashed on page 2"),
	}

	path, err := New(cfg, listing, &fakeDetails{}, testLogger, WithSleeper(noSleep)).Run(context.Background())
	if err != nil {
		t.Fatalf("a partial listing should still be scraped: %v", err)
	}
	if path == "" {
		t.Error("expected a details path")
	}
}

func TestOrchestratorCancelled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listing := fakeListing{items: []types.ProductSummary{{URL: "a"}}, err: context.Canceled}
	_, err := New(cfg, listing, &fakeDetails{}, testLogger, WithSleeper(noSleep)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
