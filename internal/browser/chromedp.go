package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// ChromeDriver renders pages with chromedp and queries a snapshot of the
// rendered DOM taken once the awaited element is present.
type ChromeDriver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	snap        *Snapshot
	logger      *slog.Logger
	closeOnce   sync.Once
}

// NewChromeDriver starts a Chrome allocator bound to ctx.
func NewChromeDriver(ctx context.Context, cfg *config.BrowserConfig, logger *slog.Logger) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if cfg.BinPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BinPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	d := &ChromeDriver{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger.With("component", "chromedp_driver"),
	}
	d.logger.Info("browser ready", "headless", cfg.Headless)
	return d, nil
}

// Open implements Driver.
func (d *ChromeDriver) Open(_ context.Context, url string) error {
	d.snap = nil
	if err := chromedp.Run(d.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitFor implements Driver.
func (d *ChromeDriver) WaitFor(_ context.Context, xpath string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()

	err := chromedp.Run(waitCtx, chromedp.WaitReady(xpath, chromedp.BySearch))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && d.ctx.Err() == nil {
			return fmt.Errorf("%w: %s", types.ErrWaitTimeout, xpath)
		}
		return err
	}
	return d.capture()
}

// FindAll implements Driver.
func (d *ChromeDriver) FindAll(_ context.Context, xpath string) ([]Element, error) {
	if d.snap == nil {
		if err := d.capture(); err != nil {
			return nil, err
		}
	}
	return d.snap.FindAll(xpath)
}

// Close implements Driver.
func (d *ChromeDriver) Close() error {
	d.closeOnce.Do(func() {
		d.cancelTab()
		d.cancelAlloc()
		d.logger.Debug("browser closed")
	})
	return nil
}

func (d *ChromeDriver) capture() error {
	var markup string
	if err := chromedp.Run(d.ctx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("capture page: %w", err)
	}
	snap, err := ParseSnapshotString(markup)
	if err != nil {
		return err
	}
	d.snap = snap
	return nil
}
