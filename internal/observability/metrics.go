package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for one pipeline run.
type Metrics struct {
	// Listing phase
	PagesCrawled  atomic.Int64
	PagesTimedOut atomic.Int64
	ItemsListed   atomic.Int64

	// Detail phase
	DetailsFetched atomic.Int64
	DetailsFailed  atomic.Int64

	// Transform
	DuplicateRows atomic.Int64
	UniqueRows    atomic.Int64

	// Enrichment
	BatchesMerged    atomic.Int64
	RelationFailures atomic.Int64
	ClarityFailures  atomic.Int64

	// Persistence
	RowsPersisted atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metric struct {
	name  string
	help  string
	value int64
}

func (m *Metrics) all() []metric {
	return []metric{
		{"playaetl_pages_crawled_total", "Listing pages crawled", m.PagesCrawled.Load()},
		{"playaetl_pages_timed_out_total", "Listing pages whose results never appeared", m.PagesTimedOut.Load()},
		{"playaetl_items_listed_total", "Products found on listing pages", m.ItemsListed.Load()},
		{"playaetl_details_fetched_total", "Product pages fetched and parsed", m.DetailsFetched.Load()},
		{"playaetl_details_failed_total", "Product pages skipped after an error", m.DetailsFailed.Load()},
		{"playaetl_duplicate_rows_total", "Rows with at least one identical twin", m.DuplicateRows.Load()},
		{"playaetl_unique_rows_total", "Rows kept after deduplication", m.UniqueRows.Load()},
		{"playaetl_batches_merged_total", "Enrichment batches merged", m.BatchesMerged.Load()},
		{"playaetl_relation_failures_total", "Enrichment batches whose relation call failed", m.RelationFailures.Load()},
		{"playaetl_clarity_failures_total", "Enrichment batches whose clarity call failed", m.ClarityFailures.Load()},
		{"playaetl_rows_persisted_total", "Rows written to the final dataset", m.RowsPersisted.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.all() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer serves the metrics endpoint until ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_crawled":     m.PagesCrawled.Load(),
		"pages_timed_out":   m.PagesTimedOut.Load(),
		"items_listed":      m.ItemsListed.Load(),
		"details_fetched":   m.DetailsFetched.Load(),
		"details_failed":    m.DetailsFailed.Load(),
		"duplicate_rows":    m.DuplicateRows.Load(),
		"unique_rows":       m.UniqueRows.Load(),
		"batches_merged":    m.BatchesMerged.Load(),
		"relation_failures": m.RelationFailures.Load(),
		"clarity_failures":  m.ClarityFailures.Load(),
		"rows_persisted":    m.RowsPersisted.Load(),
	}
}

// LogSummary writes the snapshot as a single log record.
func (m *Metrics) LogSummary() {
	metrics := m.all()
	args := make([]any, 0, len(metrics)*2)
	for _, metric := range metrics {
		args = append(args, metric.name, metric.value)
	}
	m.logger.Info("run summary", args...)
}
