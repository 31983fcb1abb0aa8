package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/seenimoa/bankcap/pkg/models"
)

const rateSource = "exchange rates"

// LoadRates reads a Currency,Rate CSV from a local path or an http(s) URL and
// returns a validated rate table. A missing target currency is reported as
// *models.MissingRateError.
func LoadRates(ctx context.Context, client *http.Client, location string) (models.ExchangeRateTable, error) {
	var body io.ReadCloser
	if isURL(location) {
		b, _, err := doGet(ctx, client, location, map[string]string{
			"Accept": "text/csv, text/plain",
		})
		if err != nil {
			return nil, &FetchError{URL: location, Err: err}
		}
		body = b
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, &FetchError{URL: location, Err: err}
		}
		body = f
	}
	defer body.Close()

	return ParseRates(body)
}

// ParseRates parses rate CSV text. A leading header row is skipped when its
// rate column is not numeric.
func ParseRates(r io.Reader) (models.ExchangeRateTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	rates := make(map[models.Currency]float64)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Source: rateSource, Row: line, Reason: "malformed CSV", Err: err}
		}
		if len(rec) < 2 {
			return nil, &ParseError{Source: rateSource, Row: line, Reason: fmt.Sprintf("expected 2 fields, found %d", len(rec))}
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, &ParseError{Source: rateSource, Row: line, Reason: fmt.Sprintf("rate %q is not numeric", rec[1]), Err: err}
		}

		code := models.ParseCurrency(rec[0])
		if code == "" {
			return nil, &ParseError{Source: rateSource, Row: line, Reason: "empty currency code"}
		}
		if _, dup := rates[code]; dup {
			return nil, &ParseError{Source: rateSource, Row: line, Reason: fmt.Sprintf("duplicate currency %s", code)}
		}
		rates[code] = rate
	}

	return models.NewExchangeRateTable(rates)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
