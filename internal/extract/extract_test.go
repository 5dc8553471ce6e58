package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonLDPage = `<!DOCTYPE html>
<html><head>
<title>Widget Deluxe | MegaShop</title>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Widget Deluxe",
  "description": "A very fine widget for discerning customers.",
  "image": ["https://cdn.megashop.example/widget.jpg"],
  "brand": {"name": "WidgetCo"},
  "offers": {"price": "49.99", "priceCurrency": "USD"}
}
</script>
</head><body><h1>Widget Deluxe</h1></body></html>`

const ogPage = `<!DOCTYPE html>
<html><head>
<title>Gadget Mini | GadgetWorld</title>
<meta property="og:title" content="Gadget Mini">
<meta property="og:image" content="//cdn.gadgetworld.example/mini.png">
<meta property="og:description" content="The smallest gadget we sell.">
<meta name="brand" content="GadgetWorld">
</head><body>
<span class="product-price">$12.50</span>
<p>Currently in stock and shipping.</p>
</body></html>`

func TestProductFromJSONLD(t *testing.T) {
	d := Product(jsonLDPage, "https://megashop.example/widget")

	assert.Equal(t, "Widget Deluxe", d.Name)
	assert.Equal(t, "$49.99", d.Price)
	assert.Equal(t, "https://cdn.megashop.example/widget.jpg", d.ImageURL)
	assert.Equal(t, "WidgetCo", d.Supplier)
	assert.Equal(t, "A very fine widget for discerning customers.", d.Description)
	assert.Equal(t, "https://megashop.example/widget", d.ProductURL)
}

func TestProductFromOpenGraph(t *testing.T) {
	d := Product(ogPage, "https://gadgetworld.example/mini")

	assert.Equal(t, "Gadget Mini", d.Name)
	assert.Equal(t, "https://cdn.gadgetworld.example/mini.png", d.ImageURL)
	assert.Equal(t, "GadgetWorld", d.Supplier)
	assert.Equal(t, "$12.50", d.Price)
	assert.Equal(t, "In Stock", d.Availability)
	assert.Equal(t, "The smallest gadget we sell.", d.Description)
}

func TestProductEmptyPageKeepsDefaults(t *testing.T) {
	d := Product("<html><body></body></html>", "https://example.com/x")

	assert.Equal(t, UnknownProduct, d.Name)
	assert.Equal(t, NoPrice, d.Price)
	assert.Equal(t, PlaceholderImage, d.ImageURL)
	assert.Equal(t, UnknownSupplier, d.Supplier)
	assert.Equal(t, UnknownAvailability, d.Availability)
}

func TestProductTitleFallback(t *testing.T) {
	page := `<html><head><title>Standalone Thing - ShopName</title></head><body></body></html>`
	d := Product(page, "https://example.com/t")
	assert.Equal(t, "Standalone Thing", d.Name)
}

const bnPage = `<!DOCTYPE html>
<html><body>
<div id="productDetail-container">
  <div id="pdp-header-authors">
    <input type="hidden" id="author" value="Alan A. A. Donovan">
    <a href="/author/donovan">Alan A. A. Donovan</a>
  </div>
  <h1 class="pdp-header-title">The Go Programming Language</h1>
  <span class="current-price">$39.99</span>
  <div class="overview-content">The authoritative resource to writing clear and idiomatic Go.</div>
  <img id="pdpMainImage" src="/images/go-book.jpg">
  <span class="availability-message">Ships within 1-2 days</span>
</div>
</body></html>`

func TestBarnesNoble(t *testing.T) {
	d := BarnesNoble(bnPage, "https://www.barnesandnoble.com/w/go-book")

	assert.Equal(t, "The Go Programming Language", d.Name)
	assert.Equal(t, "Alan A. A. Donovan", d.Author)
	assert.Equal(t, "$39.99", d.Price)
	assert.Equal(t, "Barnes & Noble", d.Supplier)
	assert.Equal(t, "https://www.barnesandnoble.com/images/go-book.jpg", d.ImageURL)
	assert.Equal(t, "Ships within 1-2 days", d.Availability)
	assert.Contains(t, d.Description, "authoritative resource")
}

func TestBarnesNobleMissingContainer(t *testing.T) {
	page := `<html><body><p>by <a href="/a">Jane Writer</a></p></body></html>`
	d := BarnesNoble(page, "https://www.barnesandnoble.com/w/x")

	// Regex fallback still finds the author.
	assert.Equal(t, "Jane Writer", d.Author)
	assert.Equal(t, UnknownProduct, d.Name)
	assert.Equal(t, "Barnes & Noble", d.Supplier)
}

func TestBarnesNobleAuthorLinkFallback(t *testing.T) {
	page := `<div id="productDetail-container">
	  <div id="pdp-header-authors"><a href="/a">Mark Author</a></div>
	</div>`
	d := BarnesNoble(page, "https://www.barnesandnoble.com/w/y")
	assert.Equal(t, "Mark Author", d.Author)
}

func TestForURL(t *testing.T) {
	bn := ForURL("https://www.BarnesAndNoble.com/w/some-book")
	d := bn(bnPage, "https://www.barnesandnoble.com/w/some-book")
	assert.Equal(t, "Barnes & Noble", d.Supplier)

	generic := ForURL("https://megashop.example/widget")
	d = generic(jsonLDPage, "https://megashop.example/widget")
	assert.Equal(t, "WidgetCo", d.Supplier)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text     string
		value    float64
		currency string
		ok       bool
	}{
		{"$39.99", 39.99, "USD", true},
		{"$1,299.00", 1299.00, "USD", true},
		{"£9.50", 9.50, "GBP", true},
		{"€120", 120, "EUR", true},
		{"₹999", 999, "INR", true},
		{"29.95 USD", 29.95, "USD", true},
		{NoPrice, 0, "", false},
		{"", 0, "", false},
		{"Call for pricing", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			value, currency, ok := ParsePrice(tt.text)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.value, value, 0.001)
				assert.Equal(t, tt.currency, currency)
			}
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example/x.jpg", absoluteURL("//cdn.example/x.jpg", "https://shop.example/p"))
	assert.Equal(t, "https://shop.example/img/x.jpg", absoluteURL("/img/x.jpg", "https://shop.example/p"))
	assert.Equal(t, "https://shop.example/p/x.jpg", absoluteURL("x.jpg", "https://shop.example/p/"))
	assert.Equal(t, "https://cdn.example/y.png", absoluteURL("https://cdn.example/y.png", "https://shop.example/p"))
}

func TestDetailsMetadata(t *testing.T) {
	d := Details{
		Name:         "Thing",
		Price:        "$5",
		ImageURL:     "https://x/i.jpg",
		Description:  "desc",
		Supplier:     "S",
		Author:       "A",
		Availability: "In Stock",
		ProductURL:   "https://x/p",
	}

	m := d.Metadata()
	assert.Equal(t, "Thing", m["name"])
	assert.Equal(t, "$5", m["price"])
	assert.Equal(t, "https://x/p", m["productUrl"])
	assert.Len(t, m, 8)
}
