// Package extract pulls product metadata out of raw product-page HTML.
//
// Extraction is best effort: the generic extractor tries JSON-LD structured
// data first, then Open Graph and common markup patterns, and finally a
// readability pass for a description. A site-specific extractor exists for
// Barnes & Noble pages, whose product markup is stable enough to target
// directly. Unknown fields keep placeholder defaults rather than failing.
package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Field defaults, kept stable because downstream bookkeeping stores them verbatim.
const (
	UnknownProduct      = "Unknown Product"
	UnknownAuthor       = "Unknown Author"
	UnknownSupplier     = "Unknown Supplier"
	UnknownAvailability = "Unknown"
	NoPrice             = "Price not available"
	NoDescription       = "No description available."
	PlaceholderImage    = "https://via.placeholder.com/300x300?text=No+Image"
)

// Details is the product metadata recovered from a page.
type Details struct {
	Name         string
	Price        string
	Currency     string
	ImageURL     string
	Description  string
	Supplier     string
	Author       string
	Availability string
	ProductURL   string
}

// Metadata flattens the details into the string map patched onto the
// provider resource. Placeholder values are included deliberately so the
// knowledge box always carries the full field set.
func (d Details) Metadata() map[string]string {
	return map[string]string{
		"name":         d.Name,
		"price":        d.Price,
		"imageUrl":     d.ImageURL,
		"description":  d.Description,
		"supplier":     d.Supplier,
		"author":       d.Author,
		"availability": d.Availability,
		"productUrl":   d.ProductURL,
	}
}

// ForURL returns the extractor best suited to the page's host.
func ForURL(pageURL string) func(string, string) Details {
	if strings.Contains(strings.ToLower(pageURL), "barnesandnoble.com") {
		return BarnesNoble
	}
	return Product
}

var (
	jsonLDPattern       = regexp.MustCompile(`(?is)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
	pricePattern        = regexp.MustCompile(`[\$£€¥₹]\s*([0-9,]+\.?[0-9]*)`)
	availabilityPattern = regexp.MustCompile(`(?i)(in\s+stock|out\s+of\s+stock|available|pre-?order|back\s*order)`)
)

// jsonLDProduct is the subset of schema.org Product markup we read.
type jsonLDProduct struct {
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       json.RawMessage `json:"image"`
	Brand       json.RawMessage `json:"brand"`
	Offers      json.RawMessage `json:"offers"`
}

// Product extracts product metadata from arbitrary page HTML.
// JSON-LD wins when present; otherwise meta tags, headings and price/stock
// text patterns fill in what they can.
func Product(content, sourceURL string) Details {
	d := Details{
		Name:         UnknownProduct,
		Price:        NoPrice,
		Currency:     "USD",
		ImageURL:     PlaceholderImage,
		Description:  NoDescription,
		Supplier:     UnknownSupplier,
		Author:       UnknownAuthor,
		Availability: UnknownAvailability,
		ProductURL:   sourceURL,
	}

	if fromJSONLD(content, sourceURL, &d) {
		return d
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return d
	}

	// Name: og:title, then <title> (stripping "| Site" suffixes), then first h1.
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && len(v) > 3 {
		d.Name = strings.TrimSpace(v)
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); len(title) > 3 {
		if i := strings.IndexAny(title, "|-"); i > 3 {
			title = strings.TrimSpace(title[:i])
		}
		d.Name = title
	} else if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); len(h1) > 3 {
		d.Name = h1
	}

	// Image: og:image, then first substantial <img>.
	if v, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && v != "" {
		d.ImageURL = absoluteURL(v, sourceURL)
	} else {
		doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := firstAttr(s, "src", "data-src", "data-lazy-src")
			if src == "" || strings.HasPrefix(src, "data:") {
				return true
			}
			d.ImageURL = absoluteURL(src, sourceURL)
			return false
		})
	}

	// Supplier: brand meta tag.
	if v, ok := doc.Find(`meta[name="brand"]`).Attr("content"); ok && v != "" {
		d.Supplier = strings.TrimSpace(v)
	}

	// Price: first currency-prefixed number anywhere in the page text.
	if m := pricePattern.FindStringSubmatch(content); m != nil {
		if _, _, ok := ParsePrice(m[0]); ok {
			d.Price = "$" + strings.ReplaceAll(m[1], ",", "")
		}
	}

	if m := availabilityPattern.FindStringSubmatch(content); m != nil {
		d.Availability = normalizeAvailability(m[1])
	}

	// Description: og:description, else a readability pass over the article body.
	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && v != "" {
		d.Description = truncate(strings.TrimSpace(v), 300)
	} else if u, err := url.Parse(sourceURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(content), u); err == nil {
			if excerpt := strings.TrimSpace(article.Excerpt); excerpt != "" {
				d.Description = truncate(excerpt, 300)
			}
		}
	}

	return d
}

// fromJSONLD fills d from schema.org Product JSON-LD and reports success.
func fromJSONLD(content, sourceURL string, d *Details) bool {
	for _, m := range jsonLDPattern.FindAllStringSubmatch(content, -1) {
		var p jsonLDProduct
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &p); err != nil {
			continue
		}
		if p.Type != "Product" {
			continue
		}

		if p.Name != "" {
			d.Name = p.Name
		}
		if p.Description != "" {
			d.Description = truncate(p.Description, 300)
		}

		// image may be a string or an array of strings
		var imgStr string
		var imgList []string
		if json.Unmarshal(p.Image, &imgStr) == nil && imgStr != "" {
			d.ImageURL = absoluteURL(imgStr, sourceURL)
		} else if json.Unmarshal(p.Image, &imgList) == nil && len(imgList) > 0 {
			d.ImageURL = absoluteURL(imgList[0], sourceURL)
		}

		// brand may be {"name": "..."} or a plain string
		var brandObj struct {
			Name string `json:"name"`
		}
		var brandStr string
		if json.Unmarshal(p.Brand, &brandObj) == nil && brandObj.Name != "" {
			d.Supplier = brandObj.Name
		} else if json.Unmarshal(p.Brand, &brandStr) == nil && brandStr != "" {
			d.Supplier = brandStr
		}

		var offers struct {
			Price json.RawMessage `json:"price"`
		}
		if json.Unmarshal(p.Offers, &offers) == nil && len(offers.Price) > 0 {
			var priceStr string
			var priceNum float64
			if json.Unmarshal(offers.Price, &priceStr) == nil && priceStr != "" {
				d.Price = "$" + priceStr
			} else if json.Unmarshal(offers.Price, &priceNum) == nil && priceNum > 0 {
				d.Price = "$" + strconv.FormatFloat(priceNum, 'f', -1, 64)
			}
		}

		return true
	}
	return false
}

// absoluteURL resolves possibly-relative image URLs against the source page.
func absoluteURL(raw, sourceURL string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// firstAttr returns the first non-empty attribute from the candidates.
func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// normalizeAvailability maps free-text stock phrases to canonical labels.
func normalizeAvailability(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "in stock"):
		return "In Stock"
	case strings.Contains(lower, "out of stock"):
		return "Out of Stock"
	default:
		return titleCase(lower)
	}
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
