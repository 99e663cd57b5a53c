package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// JSONLSink writes the enriched dataset as newline-delimited JSON, one object
// per product. Nil fields are written as JSON null.
type JSONLSink struct {
	path   string
	logger *slog.Logger
}

// NewJSONLSink creates a JSONL sink writing to path.
func NewJSONLSink(path string, logger *slog.Logger) *JSONLSink {
	return &JSONLSink{
		path:   path,
		logger: logger.With("component", "jsonl_sink"),
	}
}

func (s *JSONLSink) Name() string { return "jsonl" }

// enrichedJSON fixes the field names and order of one JSONL line.
type enrichedJSON struct {
	Name                 *string  `json:"name"`
	ProductCode          *string  `json:"product_code"`
	Brand                *string  `json:"brand"`
	Category             *string  `json:"category"`
	Subcategory          *string  `json:"subcategory"`
	Family               *string  `json:"family"`
	Reviews              int      `json:"reviews"`
	Rating               float64  `json:"rating"`
	URLImage             *string  `json:"url_image"`
	InternetPrice        *float64 `json:"internet_price"`
	NormalPrice          *float64 `json:"normal_price"`
	Seller               *string  `json:"seller"`
	URLProduct           string   `json:"url_product"`
	PriceDiffPct         *float64 `json:"price_diff_pct"`
	RelationFlag         *bool    `json:"relation_flag"`
	ClarityFlag          *string  `json:"clarity_flag"`
	SuggestedDescription *string  `json:"suggested_description"`
}

// Write replaces the file with records. Like WriteCSV it writes to a
// temporary file first and renames it into place.
func (s *JSONLSink) Write(_ context.Context, records []types.EnrichedRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.StorageError{Backend: "jsonl", Path: s.path, Err: fmt.Errorf("create output dir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &types.StorageError{Backend: "jsonl", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		line := enrichedJSON{
			Name:                 r.Name,
			ProductCode:          r.ProductCode,
			Brand:                r.Brand,
			Category:             r.Category,
			Subcategory:          r.Subcategory,
			Family:               r.Family,
			Reviews:              r.ReviewCount,
			Rating:               r.Rating,
			URLImage:             r.URLImage,
			InternetPrice:        r.InternetPrice,
			NormalPrice:          r.NormalPrice,
			Seller:               r.Seller,
			URLProduct:           r.URLProduct,
			PriceDiffPct:         r.PriceDiffPct,
			RelationFlag:         r.RelationFlag,
			ClarityFlag:          r.ClarityFlag,
			SuggestedDescription: r.SuggestedDescription,
		}
		if err := enc.Encode(line); err != nil {
			tmp.Close()
			return &types.StorageError{Backend: "jsonl", Path: s.path, Err: fmt.Errorf("encode JSONL: %w", err)}
		}
	}
	if err := tmp.Close(); err != nil {
		return &types.StorageError{Backend: "jsonl", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &types.StorageError{Backend: "jsonl", Path: s.path, Err: err}
	}

	s.logger.Info("JSONL written", "path", s.path, "items", len(records))
	return nil
}

func (s *JSONLSink) Close(context.Context) error { return nil }
