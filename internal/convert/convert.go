// Package convert augments extracted bank rows with market capitalization in
// each target currency.
//
// Conversion uses decimal arithmetic and rounds half away from zero to two
// places, so 100 × 0.8 is exactly 80.00 and 0.125 rounds to 0.13.
package convert

import (
	"github.com/shopspring/decimal"

	"github.com/seenimoa/bankcap/pkg/models"
)

// Places is the number of decimal places kept in converted values.
const Places = 2

// MissingRateError is returned when the rate table lacks a target currency.
type MissingRateError = models.MissingRateError

// Convert returns a new slice holding each row augmented with GBP, EUR and
// INR market caps. Input order and length are preserved and rows is not
// modified. All rates are checked before any row is converted.
func Convert(rows []models.Row, rates models.ExchangeRateTable) ([]models.AugmentedRow, error) {
	if err := rates.Require(models.TargetCurrencies()...); err != nil {
		return nil, err
	}

	gbp := rateOf(rates, models.GBP)
	eur := rateOf(rates, models.EUR)
	inr := rateOf(rates, models.INR)

	out := make([]models.AugmentedRow, len(rows))
	for i, r := range rows {
		usd := decimal.NewFromFloat(r.MarketCapUSD)
		out[i] = models.AugmentedRow{
			Row:          r,
			MarketCapGBP: convertAt(usd, gbp),
			MarketCapEUR: convertAt(usd, eur),
			MarketCapINR: convertAt(usd, inr),
		}
	}
	return out, nil
}

// Round rounds v half away from zero to Places decimal places.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(Places).InexactFloat64()
}

// rateOf returns the rate for code; Require has already checked it exists.
func rateOf(rates models.ExchangeRateTable, code models.Currency) decimal.Decimal {
	r, _ := rates.Rate(code)
	return decimal.NewFromFloat(r)
}

func convertAt(usd, rate decimal.Decimal) float64 {
	return usd.Mul(rate).Round(Places).InexactFloat64()
}
