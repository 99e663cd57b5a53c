package storage

import (
	"strconv"
	"strings"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// Column headers of each persisted dataset.
var (
	ListingHeader = []string{"url", "rating", "reviews"}

	DetailHeader = []string{
		"name", "product_code", "brand", "category", "subcategory", "family",
		"reviews", "rating", "url_image", "cmr_price", "event_price",
		"internet_price", "normal_price", "seller", "url_product",
	}

	TransformedHeader = []string{
		"name", "product_code", "brand", "category", "subcategory", "family",
		"reviews", "rating", "url_image", "internet_price", "normal_price",
		"seller", "url_product", "price_diff_%",
	}

	EnrichedHeader = append(append([]string{}, TransformedHeader...),
		"relation_flag", "clarity_flag", "suggested_description")
)

// EncodeListing converts summaries to CSV rows.
func EncodeListing(items []types.ProductSummary) [][]string {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.URL, formatFloat(it.Rating), strconv.Itoa(it.ReviewCount)}
	}
	return rows
}

// DecodeListing reads summaries back from a listing table.
func DecodeListing(t *Table) []types.ProductSummary {
	out := make([]types.ProductSummary, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = types.ProductSummary{
			URL:         t.Get(row, "url"),
			Rating:      parseFloat(t.Get(row, "rating")),
			ReviewCount: parseInt(t.Get(row, "reviews")),
		}
	}
	return out
}

// EncodeDetails converts product details to CSV rows.
func EncodeDetails(items []types.ProductDetail) [][]string {
	rows := make([][]string, len(items))
	for i, d := range items {
		rows[i] = []string{
			opt(d.Name), opt(d.ProductCode), opt(d.Brand), opt(d.Category),
			opt(d.Subcategory), opt(d.Family), strconv.Itoa(d.ReviewCount),
			formatFloat(d.Rating), opt(d.URLImage), opt(d.CMRPrice),
			opt(d.EventPrice), opt(d.InternetPrice), opt(d.NormalPrice),
			opt(d.Seller), d.URLProduct,
		}
	}
	return rows
}

// DecodeDetails reads product details back from a detail table.
func DecodeDetails(t *Table) []types.ProductDetail {
	out := make([]types.ProductDetail, len(t.Rows))
	for i, row := range t.Rows {
		get := func(col string) *string { return nullable(t.Get(row, col)) }
		out[i] = types.ProductDetail{
			Name:          get("name"),
			ProductCode:   get("product_code"),
			Brand:         get("brand"),
			Category:      get("category"),
			Subcategory:   get("subcategory"),
			Family:        get("family"),
			ReviewCount:   parseInt(t.Get(row, "reviews")),
			Rating:        parseFloat(t.Get(row, "rating")),
			URLImage:      get("url_image"),
			CMRPrice:      get("cmr_price"),
			EventPrice:    get("event_price"),
			InternetPrice: get("internet_price"),
			NormalPrice:   get("normal_price"),
			Seller:        get("seller"),
			URLProduct:    t.Get(row, "url_product"),
		}
	}
	return out
}

// EncodeTransformedRow converts one transformed record to a CSV row.
func EncodeTransformedRow(r types.TransformedRecord) []string {
	return []string{
		opt(r.Name), opt(r.ProductCode), opt(r.Brand), opt(r.Category),
		opt(r.Subcategory), opt(r.Family), strconv.Itoa(r.ReviewCount),
		formatFloat(r.Rating), opt(r.URLImage), optFloat(r.InternetPrice),
		optFloat(r.NormalPrice), opt(r.Seller), r.URLProduct, optFloat(r.PriceDiffPct),
	}
}

// EncodeTransformed converts transformed records to CSV rows.
func EncodeTransformed(items []types.TransformedRecord) [][]string {
	rows := make([][]string, len(items))
	for i, r := range items {
		rows[i] = EncodeTransformedRow(r)
	}
	return rows
}

// DecodeTransformed reads transformed records back from a table.
func DecodeTransformed(t *Table) []types.TransformedRecord {
	out := make([]types.TransformedRecord, len(t.Rows))
	for i, row := range t.Rows {
		get := func(col string) *string { return nullable(t.Get(row, col)) }
		out[i] = types.TransformedRecord{
			Name:          get("name"),
			ProductCode:   get("product_code"),
			Brand:         get("brand"),
			Category:      get("category"),
			Subcategory:   get("subcategory"),
			Family:        get("family"),
			ReviewCount:   parseInt(t.Get(row, "reviews")),
			Rating:        parseFloat(t.Get(row, "rating")),
			URLImage:      get("url_image"),
			InternetPrice: nullableFloat(t.Get(row, "internet_price")),
			NormalPrice:   nullableFloat(t.Get(row, "normal_price")),
			Seller:        get("seller"),
			URLProduct:    t.Get(row, "url_product"),
			PriceDiffPct:  nullableFloat(t.Get(row, "price_diff_%")),
		}
	}
	return out
}

// EncodeEnriched converts enriched records to CSV rows.
func EncodeEnriched(items []types.EnrichedRecord) [][]string {
	rows := make([][]string, len(items))
	for i, r := range items {
		relation := ""
		if r.RelationFlag != nil {
			relation = strconv.FormatBool(*r.RelationFlag)
		}
		rows[i] = append(EncodeTransformedRow(r.TransformedRecord),
			relation, opt(r.ClarityFlag), opt(r.SuggestedDescription))
	}
	return rows
}

// DecodeEnriched reads enriched records back from a table.
func DecodeEnriched(t *Table) []types.EnrichedRecord {
	base := DecodeTransformed(t)
	out := make([]types.EnrichedRecord, len(base))
	for i, row := range t.Rows {
		out[i].TransformedRecord = base[i]
		if b, err := strconv.ParseBool(t.Get(row, "relation_flag")); err == nil {
			out[i].RelationFlag = types.BoolPtr(b)
		}
		out[i].ClarityFlag = nullable(t.Get(row, "clarity_flag"))
		out[i].SuggestedDescription = nullable(t.Get(row, "suggested_description"))
	}
	return out
}

func opt(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseFloat(s string) float64 {
	if f := nullableFloat(s); f != nil {
		return *f
	}
	return 0
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return int(parseFloat(s))
}
