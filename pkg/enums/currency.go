package enums

import "fmt"

// Currency labels cart totals for display; amounts themselves stay currency-agnostic.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

var validCurrencies = []Currency{
	CurrencyEUR,
	CurrencyUSD,
	CurrencyGBP,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	if parsed := Currency(value); parsed.IsValid() {
		return parsed, nil
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
