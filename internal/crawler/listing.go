package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/IshaanNene/PlayaETL/internal/browser"
	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/observability"
	"github.com/IshaanNene/PlayaETL/internal/pacing"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// ListingSelectors locate the product pods on a listing page.
type ListingSelectors struct {
	Results     string
	Items       string
	Rating      string
	RatingAttr  string
	Reviews     string
	ReviewsAttr string
}

// DefaultListingSelectors matches the catalog's listing markup.
func DefaultListingSelectors() ListingSelectors {
	return ListingSelectors{
		Results:     `//*[@id="testId-searchResults-products"]`,
		Items:       `//a[@data-pod="catalyst-pod"]`,
		Rating:      `.//div[contains(@class, "ratings")]`,
		RatingAttr:  "data-rating",
		Reviews:     `.//span[contains(@class, "reviewCount")]`,
		ReviewsAttr: "data-rating",
	}
}

// Opener acquires the driver for one crawl.
type Opener func(ctx context.Context) (browser.Driver, error)

// ListingCrawler collects product summaries from paginated listing pages.
type ListingCrawler struct {
	cfg     *config.CatalogConfig
	open    Opener
	sel     ListingSelectors
	sleep   pacing.Sleeper
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a ListingCrawler.
type Option func(*ListingCrawler)

// WithSelectors overrides the listing selectors.
func WithSelectors(sel ListingSelectors) Option {
	return func(c *ListingCrawler) { c.sel = sel }
}

// WithSleeper replaces the wall-clock delay between pages.
func WithSleeper(s pacing.Sleeper) Option {
	return func(c *ListingCrawler) { c.sleep = s }
}

// WithMetrics records page and item counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *ListingCrawler) { c.metrics = m }
}

// New creates a listing crawler.
func New(cfg *config.CatalogConfig, open Opener, logger *slog.Logger, opts ...Option) *ListingCrawler {
	c := &ListingCrawler{
		cfg:    cfg,
		open:   open,
		sel:    DefaultListingSelectors(),
		sleep:  pacing.Sleep,
		logger: logger.With("component", "listing_crawler"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetrics(logger)
	}
	return c
}

// Crawl visits pages 1..Pages in order and concatenates their items.
//
// A page whose results never appear contributes nothing. Any other driver
// failure stops the crawl; the items gathered so far are returned with it.
// The driver is closed on every path.
func (c *ListingCrawler) Crawl(ctx context.Context) ([]types.ProductSummary, error) {
	d, err := c.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser driver: %w", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			c.logger.Warn("browser driver close failed", "error", cerr)
		}
	}()

	var summaries []types.ProductSummary
	for page := 1; page <= c.cfg.Pages; page++ {
		if page > 1 {
			if err := c.sleep(ctx, c.cfg.PageDelay); err != nil {
				return summaries, err
			}
		}

		pageURL, err := PageURL(c.cfg.BaseURL, page)
		if err != nil {
			return summaries, err
		}

		c.logger.Info("crawling listing page", "page", page, "url", pageURL)
		items, err := c.crawlPage(ctx, d, pageURL)
		if err != nil {
			c.logger.Error("browser driver failed, stopping crawl",
				"page", page, "url", pageURL, "collected", len(summaries), "error", err)
			return summaries, err
		}
		summaries = append(summaries, items...)
	}

	c.logger.Info("listing crawl complete", "pages", c.cfg.Pages, "items", len(summaries))
	return summaries, nil
}

func (c *ListingCrawler) crawlPage(ctx context.Context, d browser.Driver, pageURL string) ([]types.ProductSummary, error) {
	if err := d.Open(ctx, pageURL); err != nil {
		return nil, err
	}

	if err := d.WaitFor(ctx, c.sel.Results, c.cfg.WaitTimeout); err != nil {
		if errors.Is(err, types.ErrWaitTimeout) {
			c.logger.Warn("timed out waiting for listing results", "url", pageURL, "timeout", c.cfg.WaitTimeout)
			c.metrics.PagesTimedOut.Add(1)
			return nil, nil
		}
		return nil, err
	}

	containers, err := d.FindAll(ctx, c.sel.Items)
	if err != nil {
		return nil, err
	}
	c.logger.Info("products found", "url", pageURL, "count", len(containers))

	base, _ := url.Parse(pageURL)
	items := make([]types.ProductSummary, 0, len(containers))
	for _, el := range containers {
		items = append(items, types.ProductSummary{
			URL:         c.link(el, base),
			Rating:      c.rating(el),
			ReviewCount: c.reviews(el),
		})
	}

	c.metrics.PagesCrawled.Add(1)
	c.metrics.ItemsListed.Add(int64(len(items)))
	return items, nil
}

// link returns the pod's absolute href, or "" when it has none.
func (c *ListingCrawler) link(el browser.Element, base *url.URL) string {
	href, ok, err := el.Attr("href")
	if err != nil || !ok {
		c.logger.Debug("product link missing", "error", err)
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (c *ListingCrawler) rating(el browser.Element) float64 {
	raw, ok := c.nestedAttr(el, c.sel.Rating, c.sel.RatingAttr)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		c.logger.Debug("unusable rating", "value", raw)
		return 0
	}
	return v
}

func (c *ListingCrawler) reviews(el browser.Element) int {
	raw, ok := c.nestedAttr(el, c.sel.Reviews, c.sel.ReviewsAttr)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			c.logger.Debug("unusable review count", "value", raw)
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

func (c *ListingCrawler) nestedAttr(el browser.Element, xpath, attr string) (string, bool) {
	child, err := el.Find(xpath)
	if err != nil {
		c.logger.Debug("nested element missing", "xpath", xpath, "error", err)
		return "", false
	}
	v, ok, err := child.Attr(attr)
	if err != nil || !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// PageURL returns base with its page query parameter set to page.
func PageURL(base string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
