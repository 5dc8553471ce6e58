package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// currencySymbols maps price-text symbols to ISO currency codes.
var currencySymbols = map[string]string{
	"$": "USD",
	"£": "GBP",
	"€": "EUR",
	"¥": "JPY",
	"₹": "INR",
}

var priceValuePattern = regexp.MustCompile(`([0-9][0-9,]*\.?[0-9]*)`)

// ParsePrice pulls a numeric price and currency out of free-form price text
// such as "$39.99", "£1,299.00" or "29.95 USD". Returns ok=false when no
// parseable number is present, so placeholder texts like "Price not available"
// fail cleanly.
func ParsePrice(text string) (value float64, currency string, ok bool) {
	if text == "" {
		return 0, "", false
	}

	currency = "USD"
	for symbol, code := range currencySymbols {
		if strings.Contains(text, symbol) {
			currency = code
			break
		}
	}
	// ISO code spelled out wins over a symbol guess.
	upper := strings.ToUpper(text)
	for _, code := range currencySymbols {
		if strings.Contains(upper, code) {
			currency = code
			break
		}
	}

	m := priceValuePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, "", false
	}
	return value, currency, true
}
