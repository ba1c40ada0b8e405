package enums

import (
	"slices"
	"strings"
)

// Currency is the ISO 4217 code a purchase order is issued in.
type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var currencies = []Currency{CurrencyPEN, CurrencyUSD, CurrencyEUR}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return slices.Contains(currencies, c) }

// ParseCurrency accepts codes in any case, e.g. " usd ".
func ParseCurrency(value string) (Currency, error) {
	return lookup(currencies, strings.ToUpper(strings.TrimSpace(value)), "currency")
}
