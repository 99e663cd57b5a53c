package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/PlayaETL/internal/config"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// RodDriver drives a headless Chromium through Rod.
type RodDriver struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewRodDriver launches Chromium and opens a single page.
func NewRodDriver(cfg *config.BrowserConfig, logger *slog.Logger) (*RodDriver, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	d := &RodDriver{
		launcher: l,
		browser:  browser,
		page:     page,
		logger:   logger.With("component", "rod_driver"),
	}
	d.logger.Info("browser ready", "headless", cfg.Headless, "stealth", cfg.Stealth)
	return d, nil
}

// Open implements Driver.
func (d *RodDriver) Open(ctx context.Context, url string) error {
	if err := d.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitFor implements Driver.
func (d *RodDriver) WaitFor(ctx context.Context, xpath string, timeout time.Duration) error {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.ElementX(xpath)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s", types.ErrWaitTimeout, xpath)
	}
	return err
}

// FindAll implements Driver.
func (d *RodDriver) FindAll(ctx context.Context, xpath string) ([]Element, error) {
	els, err := d.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("elements %q: %w", xpath, err)
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

// Close implements Driver.
func (d *RodDriver) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.browser.Close()
		d.launcher.Cleanup()
		d.logger.Debug("browser closed")
	})
	return d.closeErr
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Attr(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Find uses ElementsX, which returns immediately instead of polling until
// the element shows up.
func (e *rodElement) Find(xpath string) (Element, error) {
	els, err := e.el.ElementsX(xpath)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrElementNotFound, xpath)
	}
	return &rodElement{el: els.First()}, nil
}
