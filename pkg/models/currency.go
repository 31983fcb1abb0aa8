package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Currency is an ISO 4217 currency code, e.g. "GBP".
type Currency string

const (
	USD Currency = "USD"
	GBP Currency = "GBP"
	EUR Currency = "EUR"
	INR Currency = "INR"
)

// TargetCurrencies returns the currencies every bank is converted into, in column order.
func TargetCurrencies() []Currency {
	return []Currency{GBP, EUR, INR}
}

// ParseCurrency normalizes a raw currency code ("gbp ", "GBP") to a Currency.
func ParseCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// ExchangeRateTable maps a currency to its rate in local units per USD.
// Read-only once constructed.
type ExchangeRateTable map[Currency]float64

// MissingRateError is returned when a required currency has no rate.
type MissingRateError struct {
	Code Currency
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("missing exchange rate for %s", e.Code)
}

// NewExchangeRateTable builds a validated rate table. Every target currency
// must be present and every rate must be finite and positive.
func NewExchangeRateTable(rates map[Currency]float64) (ExchangeRateTable, error) {
	table := make(ExchangeRateTable, len(rates))
	for code, rate := range rates {
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return nil, fmt.Errorf("invalid exchange rate for %s: %v", code, rate)
		}
		table[code] = rate
	}
	if err := table.Require(TargetCurrencies()...); err != nil {
		return nil, err
	}
	return table, nil
}

// Rate returns the rate for code and whether it exists.
func (t ExchangeRateTable) Rate(code Currency) (float64, bool) {
	r, ok := t[code]
	return r, ok
}

// Require checks that every code has a rate, reporting the first missing one.
func (t ExchangeRateTable) Require(codes ...Currency) error {
	for _, c := range codes {
		if _, ok := t[c]; !ok {
			return &MissingRateError{Code: c}
		}
	}
	return nil
}

// Codes returns the currency codes in the table, sorted.
func (t ExchangeRateTable) Codes() []Currency {
	codes := make([]Currency, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
