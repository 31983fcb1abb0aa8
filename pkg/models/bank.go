// Package models defines the core data structures used throughout bankcap.
package models

// Column names shared by the flat file header and the relational table.
const (
	ColName = "Name"
	ColUSD  = "MC_USD_Billion"
	ColGBP  = "MC_GBP_Billion"
	ColEUR  = "MC_EUR_Billion"
	ColINR  = "MC_INR_Billion"
)

// Columns returns the output columns in persisted order.
func Columns() []string {
	return []string{ColName, ColUSD, ColGBP, ColEUR, ColINR}
}

// Row is one bank scraped from the source table.
type Row struct {
	Name         string  `json:"name"           db:"Name"`           // e.g., "JPMorgan Chase"
	MarketCapUSD float64 `json:"market_cap_usd" db:"MC_USD_Billion"` // billions of USD
}

// AugmentedRow is a Row with market cap converted into the target currencies.
// The three converted fields are always populated together.
type AugmentedRow struct {
	Row
	MarketCapGBP float64 `json:"market_cap_gbp" db:"MC_GBP_Billion"`
	MarketCapEUR float64 `json:"market_cap_eur" db:"MC_EUR_Billion"`
	MarketCapINR float64 `json:"market_cap_inr" db:"MC_INR_Billion"`
}

// Values returns the row as an ordered slice matching Columns().
func (r AugmentedRow) Values() []any {
	return []any{r.Name, r.MarketCapUSD, r.MarketCapGBP, r.MarketCapEUR, r.MarketCapINR}
}

// ResultSet is the tabular output of a single report query.
type ResultSet struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
