package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/browser"
	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const baseURL = "https://shop.example.com/collection/playa"

func listingPage(pods string) string {
	return `<html><body><div id="testId-searchResults-products">` + pods + `</div></body></html>`
}

func pod(href, rating, reviews string) string {
	s := `<a data-pod="catalyst-pod" href="` + href + `">`
	if rating != "" {
		s += `<div class="ratings--container" data-rating="` + rating + `"></div>`
	}
	if reviews != "" {
		s += `<span class="reviewCount-x" data-rating="` + reviews + `">(` + reviews + `)</span>`
	}
	return s + `</a>`
}

// pageGetter serves listing pages keyed by their page query parameter.
type pageGetter struct {
	pages map[string]string
	fail  map[string]error
}

func (g *pageGetter) Get(_ context.Context, rawURL string) (*types.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	page := u.Query().Get("page")
	if err := g.fail[page]; err != nil {
		return nil, err
	}
	return &types.Response{URL: rawURL, StatusCode: 200, Body: []byte(g.pages[page])}, nil
}

// countingDriver records how often Close is called.
type countingDriver struct {
	browser.Driver
	closes int
}

func (d *countingDriver) Close() error {
	d.closes++
	return d.Driver.Close()
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestCrawler(pages int, g *pageGetter, opts ...Option) (*ListingCrawler, *countingDriver) {
	cfg := &config.CatalogConfig{
		BaseURL:     baseURL,
		Pages:       pages,
		WaitTimeout: 50 * time.Millisecond,
		PageDelay:   2 * time.Second,
	}
	drv := &countingDriver{Driver: browser.NewStaticDriver(g, testLogger)}
	open := func(context.Context) (browser.Driver, error) { return drv, nil }
	return New(cfg, open, testLogger, opts...), drv
}

func TestCrawlSkipsTimedOutPage(t *testing.T) {
	g := &pageGetter{pages: map[string]string{
		"1": listingPage(pod("https://shop.example.com/p/1", "4.5", "10") + pod("https://shop.example.com/p/2", "", "")),
		"2": `<html><body><p>cargando...</p></body></html>`,
		"3": listingPage(pod("/p/3", "3", "2")),
	}}
	sleeps := &recordedSleeps{}
	c, drv := newTestCrawler(3, g, WithSleeper(sleeps.sleep))

	got, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(got))
	}

	if got[0].Rating != 4.5 || got[0].ReviewCount != 10 {
		t.Errorf("first item = %+v", got[0])
	}
	if got[1].Rating != 0 || got[1].ReviewCount != 0 {
		t.Errorf("missing rating and reviews should be 0, got %+v", got[1])
	}
	if got[2].URL != "https://shop.example.com/p/3" {
		t.Errorf("relative href should be resolved, got %q", got[2].URL)
	}

	if c.metrics.PagesTimedOut.Load() != 1 {
		t.Errorf("pages timed out = %d, want 1", c.metrics.PagesTimedOut.Load())
	}
	if len(sleeps.delays) != 2 || sleeps.delays[0] != 2*time.Second {
		t.Errorf("expected a page delay between pages only, got %v", sleeps.delays)
	}
	if drv.closes != 1 {
		t.Errorf("driver closed %d times, want 1", drv.closes)
	}
}

func TestCrawlDriverFailureReturnsPrefix(t *testing.T) {
	boom := errors.New("browser crashed")
	g := &pageGetter{
		pages: map[string]string{"1": listingPage(pod("/p/1", "5", "1"))},
		fail:  map[string]error{"2": boom},
	}
	c, drv := newTestCrawler(3, g, WithSleeper(func(context.Context, time.Duration) error { return nil }))

	got, err := c.Crawl(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected the page 1 prefix, got %d items", len(got))
	}
	if drv.closes != 1 {
		t.Errorf("driver closed %d times, want 1", drv.closes)
	}
}

func TestCrawlOpenFailure(t *testing.T) {
	cfg := &config.CatalogConfig{BaseURL: baseURL, Pages: 1}
	open := func(context.Context) (browser.Driver, error) { return nil, fmt.Errorf("no chrome") }

	got, err := New(cfg, open, testLogger).Crawl(context.Background())
	if err == nil || got != nil {
		t.Fatalf("expected open error and no items, got %v, %v", got, err)
	}
}

func TestCrawlNegativeAndBadValues(t *testing.T) {
	g := &pageGetter{pages: map[string]string{
		"1": listingPage(pod("/p/1", "-1", "abc") + pod("/p/2", "x", "-4")),
	}}
	c, _ := newTestCrawler(1, g)

	got, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	for i, s := range got {
		if s.Rating != 0 || s.ReviewCount != 0 {
			t.Errorf("item %d: unusable values should be 0, got %+v", i, s)
		}
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base string
		page int
		want string
	}{
		{baseURL, 1, baseURL + "?page=1"},
		{baseURL + "?sort=price", 4, baseURL + "?page=4&sort=price"},
		{baseURL + "?page=9", 2, baseURL + "?page=2"},
	}
	for _, tt := range tests {
		got, err := PageURL(tt.base, tt.page)
		if err != nil {
			t.Fatalf("PageURL(%q, %d): %v", tt.base, tt.page, err)
		}
		if got != tt.want {
			t.Errorf("PageURL(%q, %d) = %q, want %q", tt.base, tt.page, got, tt.want)
		}
	}
}
