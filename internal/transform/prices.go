package transform

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// CleanPrices converts raw details into transformed records.
//
// The CMR and event prices are dropped. A missing normal price is backfilled
// from the internet price, both are made numeric, and price_diff_% is derived.
// The difference stays nil when the normal price is nil or zero or the
// internet price is nil. A price that cannot be parsed becomes nil.
func CleanPrices(rows []types.ProductDetail, logger *slog.Logger) []types.TransformedRecord {
	logger.Info("dropping unused price columns", "columns", "cmr_price,event_price")
	logger.Info("backfilling normal_price from internet_price")

	out := make([]types.TransformedRecord, len(rows))
	backfilled := 0
	for i, d := range rows {
		normalRaw := d.NormalPrice
		if normalRaw == nil {
			normalRaw = d.InternetPrice
			if normalRaw != nil {
				backfilled++
			}
		}

		internet, err := parsePrice(d.InternetPrice)
		if err != nil {
			logger.Warn("unparseable internet_price", "url", d.URLProduct, "error", err)
		}
		normal, err := parsePrice(normalRaw)
		if err != nil {
			logger.Warn("unparseable normal_price", "url", d.URLProduct, "error", err)
		}

		out[i] = types.TransformedRecord{
			Name:          d.Name,
			ProductCode:   d.ProductCode,
			Brand:         d.Brand,
			Category:      d.Category,
			Subcategory:   d.Subcategory,
			Family:        d.Family,
			ReviewCount:   d.ReviewCount,
			Rating:        d.Rating,
			URLImage:      d.URLImage,
			InternetPrice: internet,
			NormalPrice:   normal,
			Seller:        d.Seller,
			URLProduct:    d.URLProduct,
			PriceDiffPct:  PriceDiff(normal, internet),
		}
	}

	logger.Info("prices cleaned", "rows", len(out), "backfilled", backfilled)
	return out
}

// PriceDiff returns (normal - internet) / normal * 100, or nil when undefined.
func PriceDiff(normal, internet *float64) *float64 {
	if normal == nil || internet == nil || *normal == 0 {
		return nil
	}
	return types.FloatPtr((*normal - *internet) / *normal * 100)
}

// parsePrice strips thousands separators and parses the value.
func parsePrice(raw *string) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.ReplaceAll(strings.TrimSpace(*raw), ",", "")
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", *raw, err)
	}
	return &f, nil
}
