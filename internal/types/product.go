package types

// ProductSummary is one item found on a catalog listing page.
type ProductSummary struct {
	URL         string
	Rating      float64
	ReviewCount int
}

// ProductDetail holds the fields parsed from a product page.
// Every optional field is nil when the page did not expose it.
type ProductDetail struct {
	Name          *string
	ProductCode   *string
	Brand         *string
	Category      *string
	Subcategory   *string
	Family        *string
	ReviewCount   int
	Rating        float64
	URLImage      *string
	CMRPrice      *string
	EventPrice    *string
	InternetPrice *string
	NormalPrice   *string
	Seller        *string
	URLProduct    string
}

// TransformedRecord is a ProductDetail after price cleaning.
// PriceDiffPct is nil when the percentage is undefined.
type TransformedRecord struct {
	Name          *string
	ProductCode   *string
	Brand         *string
	Category      *string
	Subcategory   *string
	Family        *string
	ReviewCount   int
	Rating        float64
	URLImage      *string
	InternetPrice *float64
	NormalPrice   *float64
	Seller        *string
	URLProduct    string
	PriceDiffPct  *float64
}

// EnrichedRecord is a TransformedRecord plus the model judgments.
// A nil judgment means the model call failed or its answer was unusable.
type EnrichedRecord struct {
	TransformedRecord
	RelationFlag         *bool
	ClarityFlag          *string
	SuggestedDescription *string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
