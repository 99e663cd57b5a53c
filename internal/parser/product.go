package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// DetailSelectors are the CSS selectors used to locate product page fields.
type DetailSelectors struct {
	Name          string
	ProductCode   string
	Brand         string
	Breadcrumb    string
	Image         string
	CMRPrice      string
	EventPrice    string
	InternetPrice string
	NormalPrice   string
	Seller        string
}

// DefaultDetailSelectors matches the catalog's product page markup.
func DefaultDetailSelectors() DetailSelectors {
	return DetailSelectors{
		Name:          "h1.product-name",
		ProductCode:   "span.jsx-3410277752",
		Brand:         "a#pdp-product-brand-link",
		Breadcrumb:    "ol.Breadcrumbs-module_breadcrumb__3lLwJ a",
		Image:         "img.jsx-2487856160",
		CMRPrice:      "li[data-cmr-price]",
		EventPrice:    "li[data-event-price]",
		InternetPrice: "li[data-internet-price]",
		NormalPrice:   "li[data-normal-price]",
		Seller:        "a#testId-SellerInfo-sellerName span",
	}
}

// ProductParser extracts product fields using goquery.
type ProductParser struct {
	sel    DetailSelectors
	logger *slog.Logger
}

// NewProductParser creates a product page parser.
func NewProductParser(sel DetailSelectors, logger *slog.Logger) *ProductParser {
	return &ProductParser{
		sel:    sel,
		logger: logger.With("component", "product_parser"),
	}
}

// Parse implements Parser.
func (p *ProductParser) Parse(resp *types.Response) (*types.ProductDetail, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: resp.URL, Err: err}
	}

	d := &types.ProductDetail{URLProduct: resp.URL}

	d.Name = p.text(doc, p.sel.Name)
	d.ProductCode = p.productCode(doc)
	d.Brand = p.text(doc, p.sel.Brand)
	d.Category, d.Subcategory, d.Family = p.breadcrumb(doc)
	d.URLImage = p.attr(doc, p.sel.Image, "src")
	d.CMRPrice = p.attr(doc, p.sel.CMRPrice, "data-cmr-price")
	d.EventPrice = p.attr(doc, p.sel.EventPrice, "data-event-price")
	d.InternetPrice = p.attr(doc, p.sel.InternetPrice, "data-internet-price")
	d.NormalPrice = p.attr(doc, p.sel.NormalPrice, "data-normal-price")
	d.Seller = p.text(doc, p.sel.Seller)

	p.logger.Debug("product parsed", "url", resp.URL, "name", types.Deref(d.Name))
	return d, nil
}

// text returns the text of the first match, or nil when nothing matches.
func (p *ProductParser) text(doc *goquery.Document, selector string) *string {
	s := doc.Find(selector).First()
	if s.Length() == 0 {
		p.logger.Debug("element missing", "selector", selector)
		return nil
	}
	return types.StringPtr(strings.TrimSpace(s.Text()))
}

// attr returns an attribute of the first match, or nil when absent.
func (p *ProductParser) attr(doc *goquery.Document, selector, name string) *string {
	v, ok := doc.Find(selector).First().Attr(name)
	if !ok {
		p.logger.Debug("attribute missing", "selector", selector, "attr", name)
		return nil
	}
	return types.StringPtr(v)
}

// productCode reads the value after the first ":" in the code label.
func (p *ProductParser) productCode(doc *goquery.Document) *string {
	label := p.text(doc, p.sel.ProductCode)
	if label == nil {
		return nil
	}
	_, code, ok := strings.Cut(*label, ":")
	if !ok {
		return nil
	}
	return types.StringPtr(strings.TrimSpace(code))
}

// breadcrumb splits the trail into category, subcategory and family.
// The trail needs at least three links; the second is "Category - Subcategory".
func (p *ProductParser) breadcrumb(doc *goquery.Document) (category, subcategory, family *string) {
	var parts []string
	doc.Find(p.sel.Breadcrumb).Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})
	if len(parts) < 3 {
		return nil, nil, nil
	}

	// Without "Category - Subcategory" neither can be derived.
	if cat, sub, ok := strings.Cut(parts[1], "-"); ok {
		category = types.StringPtr(strings.TrimSpace(cat))
		sub, _, _ = strings.Cut(sub, "-")
		subcategory = types.StringPtr(strings.TrimSpace(sub))
	}
	family = types.StringPtr(parts[2])
	return category, subcategory, family
}
