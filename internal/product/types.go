package product

import "time"

// Product is one bookkeeping row for an indexed product page.
// NucliaDocumentID is the join key back to the provider's knowledge box and
// uniquely identifies the row.
type Product struct {
	ID               int64     `json:"id"`
	NucliaDocumentID string    `json:"nuclia_document_id"`
	Name             string    `json:"name"`
	Author           string    `json:"author,omitempty"`
	PriceText        string    `json:"price_text"`
	ImageURL         string    `json:"image_url"`
	Description      string    `json:"description"`
	Supplier         string    `json:"supplier"`
	Availability     string    `json:"availability"`
	ProductURL       string    `json:"product_url"`
	ProductType      string    `json:"product_type"` // "product" or "generic"
	HasMetadata      bool      `json:"has_metadata"`
	IndexedAt        time.Time `json:"indexed_at"`
	LastUpdated      time.Time `json:"last_updated"`
}

// PricePoint is one observed price for a product.
// Append-only: rows are never mutated after insert.
type PricePoint struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
	Source     string    `json:"source"`
}

// compareAttributes are the columns aligned side by side in a comparison.
var compareAttributes = []string{
	"name", "price_text", "supplier", "availability",
	"description", "product_url", "image_url",
}

// Comparison aligns products by key attributes for side-by-side rendering.
// Attributes maps each attribute name to one value per product, in product
// order; missing values appear as "N/A".
type Comparison struct {
	Products   []Product           `json:"products"`
	Attributes map[string][]string `json:"comparison_attributes"`
	Total      int                 `json:"total"`
}

// BuildComparison builds the attribute matrix for a set of products.
func BuildComparison(products []Product) Comparison {
	attrs := make(map[string][]string, len(compareAttributes))
	for _, attr := range compareAttributes {
		values := make([]string, len(products))
		for i, p := range products {
			values[i] = attributeValue(p, attr)
		}
		attrs[attr] = values
	}

	return Comparison{
		Products:   products,
		Attributes: attrs,
		Total:      len(products),
	}
}

func attributeValue(p Product, attr string) string {
	var v string
	switch attr {
	case "name":
		v = p.Name
	case "price_text":
		v = p.PriceText
	case "supplier":
		v = p.Supplier
	case "availability":
		v = p.Availability
	case "description":
		v = p.Description
	case "product_url":
		v = p.ProductURL
	case "image_url":
		v = p.ImageURL
	}
	if v == "" {
		return "N/A"
	}
	return v
}
