package datasource

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/bankcap/pkg/models"
)

const bankTableSource = "bank table"

// Extractor turns the bank listing document into rows.
type Extractor struct {
	Source DocumentSource
}

// NewExtractor creates an Extractor reading from src.
func NewExtractor(src DocumentSource) *Extractor {
	return &Extractor{Source: src}
}

// Extract opens the document and parses it with ExtractBanks.
func (e *Extractor) Extract(ctx context.Context) ([]models.Row, error) {
	body, err := e.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ExtractBanks(body)
}

// ExtractBanks parses the first table in r. The first row is a header; each
// following row yields one models.Row in document order. The name is the
// second link in the second cell (the first is a flag icon) and the market
// cap is the third cell.
func ExtractBanks(r io.Reader) ([]models.Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Source: bankTableSource, Reason: "invalid HTML", Err: err}
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &ParseError{Source: bankTableSource, Reason: "document has no table", Err: ErrNoTable}
	}

	trs := table.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr")
	if trs.Length() == 0 {
		trs = table.ChildrenFiltered("tr")
	}

	rows := make([]models.Row, 0, trs.Length())
	var parseErr error
	trs.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if i == 0 { // header
			return true
		}
		row, err := parseBankRow(i, tr)
		if err != nil {
			parseErr = err
			return false
		}
		rows = append(rows, row)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return rows, nil
}

// parseBankRow parses data row index (1-based, header excluded).
func parseBankRow(index int, tr *goquery.Selection) (models.Row, error) {
	cells := tr.ChildrenFiltered("td, th")
	if cells.Length() < 3 {
		return models.Row{}, &ParseError{
			Source: bankTableSource,
			Row:    index,
			Reason: fmt.Sprintf("expected at least 3 cells, found %d", cells.Length()),
		}
	}

	links := cells.Eq(1).Find("a")
	if links.Length() < 2 {
		return models.Row{}, &ParseError{
			Source: bankTableSource,
			Row:    index,
			Reason: fmt.Sprintf("expected at least 2 links in name cell, found %d", links.Length()),
		}
	}
	name := strings.TrimSpace(links.Eq(1).Text())
	if name == "" {
		return models.Row{}, &ParseError{Source: bankTableSource, Row: index, Reason: "empty bank name"}
	}

	capText := cells.Eq(2).Text()
	usd, err := parseMarketCap(capText)
	if err != nil {
		return models.Row{}, &ParseError{
			Source: bankTableSource,
			Row:    index,
			Reason: fmt.Sprintf("market cap %q is not numeric", strings.TrimSpace(capText)),
			Err:    err,
		}
	}

	return models.Row{Name: name, MarketCapUSD: usd}, nil
}

// parseMarketCap parses "432.92\n", "432.92B" or "1,234.5" into a float.
// A single trailing unit character is stripped before parsing.
func parseMarketCap(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if last, size := utf8.DecodeLastRuneInString(s); size > 0 && !unicode.IsDigit(last) && last != '.' {
		s = strings.TrimSpace(s[:len(s)-size])
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
