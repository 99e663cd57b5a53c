// Package browser provides the page drivers used by the listing crawler.
//
// A Driver is an exclusively owned browser session. Selectors are XPath
// expressions. Missing elements are reported with types.ErrElementNotFound and
// expired waits with types.ErrWaitTimeout, so callers can degrade per item or
// per page without knowing which backend is in use.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/fetcher"
)

// Driver is the capability set the listing crawler needs from a browser.
type Driver interface {
	// Open navigates to url.
	Open(ctx context.Context, url string) error

	// WaitFor blocks until xpath matches or timeout expires.
	WaitFor(ctx context.Context, xpath string, timeout time.Duration) error

	// FindAll returns every element matching xpath on the current page.
	FindAll(ctx context.Context, xpath string) ([]Element, error)

	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// Element is a node on the current page.
type Element interface {
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool, error)

	// Find returns the first descendant matching a relative xpath.
	Find(xpath string) (Element, error)
}

// Open starts the driver selected by cfg.Driver.
// The static driver needs getter; the browser-backed drivers ignore it.
func Open(ctx context.Context, cfg *config.BrowserConfig, getter fetcher.Getter, logger *slog.Logger) (Driver, error) {
	switch cfg.Driver {
	case "", "rod":
		return NewRodDriver(cfg, logger)
	case "chromedp":
		return NewChromeDriver(ctx, cfg, logger)
	case "static":
		return NewStaticDriver(getter, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}
