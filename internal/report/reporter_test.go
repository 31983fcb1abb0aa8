package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/bankcap/internal/store"
	"github.com/seenimoa/bankcap/pkg/models"
)

const table = "Largest_banks"

func loadedStore(t *testing.T, rows []models.AugmentedRow) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, store.DefaultDriver, filepath.Join(t.TempDir(), "Banks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ReplaceTable(ctx, table, rows))
	return s
}

func banksWithGBP(gbp ...float64) []models.AugmentedRow {
	rows := make([]models.AugmentedRow, len(gbp))
	for i, v := range gbp {
		rows[i] = models.AugmentedRow{
			Row:          models.Row{Name: fmt.Sprintf("Bank %c", 'A'+i), MarketCapUSD: v * 1.25},
			MarketCapGBP: v,
			MarketCapEUR: v * 1.1,
			MarketCapINR: v * 100,
		}
	}
	return rows
}

func TestDefaultQueries(t *testing.T) {
	assert.Equal(t, []string{
		"SELECT * FROM Largest_banks",
		"SELECT AVG(MC_GBP_Billion) AS Average_Cap FROM Largest_banks",
		"SELECT Name FROM Largest_banks LIMIT 5",
	}, DefaultQueries(table))
}

func TestAverageCap(t *testing.T) {
	s := loadedStore(t, banksWithGBP(10.0, 20.0, 30.0))
	var out bytes.Buffer
	r := &Reporter{Store: s, Out: &out}

	results, err := r.Run(context.Background(), DefaultQueries(table)[1:2], nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"Average_Cap"}, results[0].Columns)
	assert.Equal(t, [][]any{{20.0}}, results[0].Rows)
	assert.Contains(t, out.String(), "Average_Cap")
	assert.Contains(t, out.String(), "20")
}

func TestFirstFiveNamesInInsertionOrder(t *testing.T) {
	s := loadedStore(t, banksWithGBP(7, 1, 6, 2, 5, 3, 4))
	r := &Reporter{Store: s, Out: &bytes.Buffer{}}

	results, err := r.Run(context.Background(), DefaultQueries(table)[2:], nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Bank A"}, {"Bank B"}, {"Bank C"}, {"Bank D"}, {"Bank E"}}, results[0].Rows)
}

func TestRunDefaultQueriesInOrder(t *testing.T) {
	s := loadedStore(t, banksWithGBP(10, 20, 30))
	var out bytes.Buffer
	r := &Reporter{Store: s, Out: &out, Format: FormatText}

	var seen []string
	results, err := r.Run(context.Background(), DefaultQueries(table), func(q string) { seen = append(seen, q) })
	require.NoError(t, err)
	assert.Equal(t, DefaultQueries(table), seen)
	require.Len(t, results, 3)
	assert.Len(t, results[0].Rows, 3)

	text := out.String()
	first := strings.Index(text, DefaultQueries(table)[0])
	second := strings.Index(text, DefaultQueries(table)[1])
	third := strings.Index(text, DefaultQueries(table)[2])
	assert.True(t, first >= 0 && first < second && second < third, "queries rendered out of order:\n%s", text)
	assert.Contains(t, text, "(3 rows)")
}

func TestRunFailsOnMissingTable(t *testing.T) {
	s, err := store.Open(context.Background(), store.DefaultDriver, filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer s.Close()

	r := &Reporter{Store: s, Out: &bytes.Buffer{}}
	_, err = r.Run(context.Background(), DefaultQueries(table), nil)

	var qe *store.QueryError
	require.True(t, errors.As(err, &qe), "got %v", err)
	assert.Equal(t, DefaultQueries(table)[0], qe.Query)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	s := loadedStore(t, banksWithGBP(1, 2))
	r := &Reporter{Store: s, Out: &bytes.Buffer{}}

	queries := []string{"SELECT Name FROM " + table, "SELECT Missing FROM " + table, "SELECT * FROM " + table}
	var seen []string
	results, err := r.Run(context.Background(), queries, func(q string) { seen = append(seen, q) })

	var qe *store.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Len(t, results, 1)
	assert.Equal(t, queries[:2], seen)
}

func TestRunJSON(t *testing.T) {
	s := loadedStore(t, banksWithGBP(10, 20, 30))
	var out bytes.Buffer
	r := &Reporter{Store: s, Out: &out, Format: FormatJSON}

	_, err := r.Run(context.Background(), DefaultQueries(table)[1:2], nil)
	require.NoError(t, err)

	var rs models.ResultSet
	require.NoError(t, json.Unmarshal(out.Bytes(), &rs))
	assert.Equal(t, DefaultQueries(table)[1], rs.Query)
	assert.Equal(t, [][]any{{20.0}}, rs.Rows)
}

func TestRunHTML(t *testing.T) {
	s := loadedStore(t, banksWithGBP(10, 20))
	var out bytes.Buffer
	r := &Reporter{Store: s, Out: &out, Format: FormatHTML, Title: "Banks <test>"}

	_, err := r.Run(context.Background(), DefaultQueries(table), nil)
	require.NoError(t, err)

	html := out.String()
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "Banks &lt;test&gt;")
	assert.Contains(t, html, "<td>Bank A</td>")
	assert.Contains(t, html, `<td class="num">20</td>`)
	assert.Equal(t, 3, strings.Count(html, "<table>"))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]ReportFormat{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " html ": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "8000", FormatValue(8000.0))
	assert.Equal(t, "346.34", FormatValue(346.34))
	assert.Equal(t, "abc", FormatValue([]byte("abc")))
	assert.Equal(t, "5", FormatValue(int64(5)))
}

func TestWriteText(t *testing.T) {
	rs := &models.ResultSet{
		Query:   "SELECT Name FROM t",
		Columns: []string{"Name"},
		Rows:    [][]any{{"Bank A"}, {"Bank B"}},
	}
	var sb strings.Builder
	require.NoError(t, writeText(&sb, rs))
	text := sb.String()
	assert.True(t, strings.HasPrefix(text, "SELECT Name FROM t\n"))
	assert.Contains(t, text, "Bank B")
	assert.Contains(t, text, "(2 rows)")
}
