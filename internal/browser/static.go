package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/PlayaETL/internal/fetcher"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// StaticDriver fetches pages over plain HTTP and queries the returned markup.
// It suits catalogs that render their listing server-side.
type StaticDriver struct {
	getter fetcher.Getter
	snap   *Snapshot
	logger *slog.Logger
}

// NewStaticDriver creates a driver that reads pages through getter.
func NewStaticDriver(getter fetcher.Getter, logger *slog.Logger) *StaticDriver {
	return &StaticDriver{
		getter: getter,
		logger: logger.With("component", "static_driver"),
	}
}

// Open implements Driver.
func (d *StaticDriver) Open(ctx context.Context, url string) error {
	if d.getter == nil {
		return errors.New("static driver has no getter")
	}
	d.snap = nil
	resp, err := d.getter.Get(ctx, url)
	if err != nil {
		return err
	}
	snap, err := ParseSnapshot(bytes.NewReader(resp.Body))
	if err != nil {
		return &types.ParseError{URL: url, Err: err}
	}
	d.snap = snap
	return nil
}

// WaitFor implements Driver. A static page never changes, so a selector that
// is absent now is reported as a timeout immediately.
func (d *StaticDriver) WaitFor(_ context.Context, xpath string, _ time.Duration) error {
	if d.snap == nil {
		return errors.New("no page open")
	}
	ok, err := d.snap.Has(xpath)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrWaitTimeout, xpath)
	}
	return nil
}

// FindAll implements Driver.
func (d *StaticDriver) FindAll(_ context.Context, xpath string) ([]Element, error) {
	if d.snap == nil {
		return nil, errors.New("no page open")
	}
	return d.snap.FindAll(xpath)
}

// Close implements Driver.
func (d *StaticDriver) Close() error {
	d.snap = nil
	return nil
}
