package parser

import (
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const productHTML = `<!DOCTYPE html>
<html>
<body>
    <ol class="Breadcrumbs-module_breadcrumb__3lLwJ">
        <li><a href="/">Inicio</a></li>
        <li><a href="/c1">Deportes - Playa - Verano</a></li>
        <li><a href="/c2">Sombrillas</a></li>
    </ol>
    <a id="pdp-product-brand-link" href="/brand">SOLEIL</a>
    <h1 class="product-name">  Sombrilla de playa 2m  </h1>
    <span class="jsx-3410277752">Código del producto: 12345678</span>
    <img class="jsx-2487856160" src="https://media.example.com/sombrilla.jpg">
    <ol>
        <li data-cmr-price="59.90">CMR</li>
        <li data-internet-price="1,299.90">Internet</li>
        <li data-normal-price="1,599.90">Normal</li>
    </ol>
    <a id="testId-SellerInfo-sellerName" href="/seller"><span>Falabella</span></a>
</body>
</html>`

func makeResp(url, body string) *types.Response {
	return &types.Response{
		URL:         url,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
	}
}

func TestProductParserFullPage(t *testing.T) {
	p := NewProductParser(DefaultDetailSelectors(), testLogger)

	d, err := p.Parse(makeResp("https://example.com/p/1", productHTML))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	checks := []struct {
		field string
		got   *string
		want  string
	}{
		{"name", d.Name, "Sombrilla de playa 2m"},
		{"product_code", d.ProductCode, "12345678"},
		{"brand", d.Brand, "SOLEIL"},
		{"category", d.Category, "Deportes"},
		{"subcategory", d.Subcategory, "Playa"},
		{"family", d.Family, "Sombrillas"},
		{"url_image", d.URLImage, "https://media.example.com/sombrilla.jpg"},
		{"cmr_price", d.CMRPrice, "59.90"},
		{"internet_price", d.InternetPrice, "1,299.90"},
		{"normal_price", d.NormalPrice, "1,599.90"},
		{"seller", d.Seller, "Falabella"},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s: expected %q, got nil", c.field, c.want)
			continue
		}
		if *c.got != c.want {
			t.Errorf("%s: expected %q, got %q", c.field, c.want, *c.got)
		}
	}

	if d.EventPrice != nil {
		t.Errorf("event_price should be nil, got %q", *d.EventPrice)
	}
	if d.URLProduct != "https://example.com/p/1" {
		t.Errorf("url_product = %q", d.URLProduct)
	}
}

func TestProductParserEmptyPage(t *testing.T) {
	p := NewProductParser(DefaultDetailSelectors(), testLogger)

	d, err := p.Parse(makeResp("https://example.com/p/2", "<html><body><p>gone</p></body></html>"))
	if err != nil {
		t.Fatalf("missing elements should not fail the parse: %v", err)
	}
	fields := []*string{
		d.Name, d.ProductCode, d.Brand, d.Category, d.Subcategory, d.Family,
		d.URLImage, d.CMRPrice, d.EventPrice, d.InternetPrice, d.NormalPrice, d.Seller,
	}
	for i, f := range fields {
		if f != nil {
			t.Errorf("field %d should be nil, got %q", i, *f)
		}
	}
}

func TestProductParserBreadcrumbWithoutSeparator(t *testing.T) {
	html := `<ol class="Breadcrumbs-module_breadcrumb__3lLwJ">
        <a>Inicio</a><a>Verano</a><a>Toallas</a>
    </ol>`
	p := NewProductParser(DefaultDetailSelectors(), testLogger)

	d, err := p.Parse(makeResp("https://example.com/p/3", html))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if d.Category != nil {
		t.Errorf("category should be nil, got %q", *d.Category)
	}
	if d.Subcategory != nil {
		t.Errorf("subcategory should be nil, got %q", *d.Subcategory)
	}
	if types.Deref(d.Family) != "Toallas" {
		t.Errorf("family = %q, want Toallas", types.Deref(d.Family))
	}
}

func TestProductParserShortBreadcrumb(t *testing.T) {
	html := `<ol class="Breadcrumbs-module_breadcrumb__3lLwJ"><a>Inicio</a><a>Verano</a></ol>`
	p := NewProductParser(DefaultDetailSelectors(), testLogger)

	d, _ := p.Parse(makeResp("https://example.com/p/4", html))
	if d.Category != nil || d.Subcategory != nil || d.Family != nil {
		t.Error("a trail shorter than three links should leave the taxonomy nil")
	}
}

func TestProductCodeWithoutColon(t *testing.T) {
	html := `<span class="jsx-3410277752">12345678</span>`
	p := NewProductParser(DefaultDetailSelectors(), testLogger)

	d, _ := p.Parse(makeResp("https://example.com/p/5", html))
	if d.ProductCode != nil {
		t.Errorf("product code without a label separator should be nil, got %q", *d.ProductCode)
	}
}
