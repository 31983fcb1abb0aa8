package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"Name", "MC_USD_Billion", "MC_GBP_Billion", "MC_EUR_Billion", "MC_INR_Billion"},
		Columns())
}

func TestAugmentedRowValues(t *testing.T) {
	r := AugmentedRow{
		Row:          Row{Name: "Bank A", MarketCapUSD: 100},
		MarketCapGBP: 80,
		MarketCapEUR: 90,
		MarketCapINR: 8000,
	}
	assert.Equal(t, []any{"Bank A", 100.0, 80.0, 90.0, 8000.0}, r.Values())
}

func TestParseCurrency(t *testing.T) {
	assert.Equal(t, GBP, ParseCurrency(" gbp "))
	assert.Equal(t, INR, ParseCurrency("INR"))
}

// ── ExchangeRateTable ──

func TestNewExchangeRateTable(t *testing.T) {
	table, err := NewExchangeRateTable(map[Currency]float64{GBP: 0.8, EUR: 0.9, INR: 80, "JPY": 150})
	require.NoError(t, err)

	r, ok := table.Rate(INR)
	assert.True(t, ok)
	assert.Equal(t, 80.0, r)
	assert.Equal(t, []Currency{EUR, GBP, INR, "JPY"}, table.Codes())
}

func TestNewExchangeRateTableMissingCode(t *testing.T) {
	for _, missing := range TargetCurrencies() {
		rates := map[Currency]float64{GBP: 0.8, EUR: 0.9, INR: 80}
		delete(rates, missing)

		_, err := NewExchangeRateTable(rates)
		var mre *MissingRateError
		require.True(t, errors.As(err, &mre), "missing %s: got %v", missing, err)
		assert.Equal(t, missing, mre.Code)
		assert.Contains(t, err.Error(), string(missing))
	}
}

func TestNewExchangeRateTableRejectsBadRates(t *testing.T) {
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewExchangeRateTable(map[Currency]float64{GBP: bad, EUR: 0.9, INR: 80})
		assert.Error(t, err, "rate %v", bad)
	}
}
