package convert

import (
	"errors"

	"github.com/montanaflynn/stats"

	"github.com/seenimoa/bankcap/pkg/models"
)

// ErrNoRows is returned by Summarize for an empty row set.
var ErrNoRows = errors.New("no rows to summarize")

// Summary holds descriptive statistics over USD market caps.
type Summary struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total_usd"`
	Mean   float64 `json:"mean_usd"`
	Median float64 `json:"median_usd"`
	Max    float64 `json:"max_usd"`
	Top    string  `json:"top"` // name of the largest bank
}

// Summarize computes a Summary of rows. Values are rounded like conversions.
func Summarize(rows []models.AugmentedRow) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, ErrNoRows
	}

	data := make(stats.Float64Data, len(rows))
	top := rows[0]
	for i, r := range rows {
		data[i] = r.MarketCapUSD
		if r.MarketCapUSD > top.MarketCapUSD {
			top = r
		}
	}

	total, err := data.Sum()
	if err != nil {
		return Summary{}, err
	}
	mean, err := data.Mean()
	if err != nil {
		return Summary{}, err
	}
	median, err := data.Median()
	if err != nil {
		return Summary{}, err
	}
	highest, err := data.Max()
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Count:  len(rows),
		Total:  Round(total),
		Mean:   Round(mean),
		Median: Round(median),
		Max:    highest,
		Top:    top.Name,
	}, nil
}
