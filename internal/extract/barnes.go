package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Barnes & Noble product pages wrap everything in #productDetail-container;
// the selectors below follow that markup.
const bnBaseURL = "https://www.barnesandnoble.com"

var bnAuthorInputPattern = regexp.MustCompile(`(?i)<input[^>]*id=["']author["'][^>]*value=["']([^"']+)["']`)
var bnAuthorLinkPattern = regexp.MustCompile(`(?i)by\s*<a[^>]*href=[^>]*>([^<]+)</a>`)
var bnPriceTextPattern = regexp.MustCompile(`\$\d+\.\d+`)

// BarnesNoble extracts product details from a Barnes & Noble product page.
// Falls back to regex patterns for the author when the DOM walk finds nothing.
func BarnesNoble(content, sourceURL string) Details {
	d := Details{
		Name:         UnknownProduct,
		Price:        NoPrice,
		Currency:     "USD",
		ImageURL:     PlaceholderImage,
		Description:  NoDescription,
		Supplier:     "Barnes & Noble",
		Author:       UnknownAuthor,
		Availability: UnknownAvailability,
		ProductURL:   sourceURL,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err == nil {
		container := doc.Find("#productDetail-container").First()
		if container.Length() > 0 {
			extractBNFromContainer(container, &d)
		}
	}

	// Regex fallback when the DOM walk could not find an author.
	if d.Author == UnknownAuthor {
		if m := bnAuthorInputPattern.FindStringSubmatch(content); m != nil {
			d.Author = strings.TrimSpace(m[1])
		} else if m := bnAuthorLinkPattern.FindStringSubmatch(content); m != nil {
			d.Author = strings.TrimSpace(m[1])
		}
	}

	return d
}

func extractBNFromContainer(container *goquery.Selection, d *Details) {
	// Author: hidden input first, then the author link text.
	authors := container.Find("#pdp-header-authors").First()
	if authors.Length() > 0 {
		if v, ok := authors.Find("input#author").Attr("value"); ok && v != "" {
			d.Author = strings.TrimSpace(v)
		} else if link := strings.TrimSpace(authors.Find("a").First().Text()); link != "" {
			d.Author = link
		}
	}

	// Title: h1 with a title class, any h1, then testid/class fallbacks.
	for _, sel := range []string{
		`h1[class*="title" i]`,
		"h1",
		`[data-testid="product-title"]`,
		`div[class*="product-title" i]`,
	} {
		if text := strings.TrimSpace(container.Find(sel).First().Text()); text != "" {
			d.Name = text
			break
		}
	}

	// Price: testid and class variants; only accept dollar-denominated text.
	for _, sel := range []string{
		`[data-testid="price"]`,
		`span[class*="price" i]`,
		`div[class*="price" i]`,
	} {
		text := strings.TrimSpace(container.Find(sel).First().Text())
		if strings.Contains(text, "$") {
			if m := bnPriceTextPattern.FindString(text); m != "" {
				d.Price = m
			} else {
				d.Price = text
			}
			break
		}
	}

	// Description: overview/description/summary blocks, only when substantial.
	for _, sel := range []string{
		`div[class*="overview" i]`,
		`div[class*="description" i]`,
		`div[class*="summary" i]`,
		`[data-testid="description"]`,
	} {
		text := strings.TrimSpace(container.Find(sel).First().Text())
		if len(text) > 20 {
			d.Description = truncate(text, 500)
			break
		}
	}

	// Image: the main product image first, any product image second.
	for _, sel := range []string{
		"img#pdpMainImage",
		`img[class*="product" i]`,
		`img[data-testid="product-image"]`,
		"img",
	} {
		img := container.Find(sel).First()
		if img.Length() == 0 {
			continue
		}
		src := firstAttr(img, "src", "data-src", "data-lazy-src")
		if src == "" || strings.HasPrefix(src, "data:") {
			continue
		}
		switch {
		case strings.HasPrefix(src, "//"):
			src = "https:" + src
		case strings.HasPrefix(src, "/"):
			src = bnBaseURL + src
		}
		d.ImageURL = src
		break
	}

	for _, sel := range []string{
		`[data-testid="availability"]`,
		`span[class*="availability" i]`,
		`div[class*="stock" i]`,
	} {
		if text := strings.TrimSpace(container.Find(sel).First().Text()); text != "" {
			d.Availability = text
			break
		}
	}
}
