package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seenimoa/bankcap/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Reporter: runs the fixed read queries and renders each result set
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatText ReportFormat = "text"
	FormatJSON ReportFormat = "json"
	FormatHTML ReportFormat = "html"
)

// ParseFormat validates a configured format name; empty means text.
func ParseFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Querier executes a read-only statement. *store.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, query string) (*models.ResultSet, error)
}

// DefaultQueries returns the statements run after every load.
func DefaultQueries(table string) []string {
	return []string{
		"SELECT * FROM " + table,
		"SELECT AVG(" + models.ColGBP + ") AS Average_Cap FROM " + table,
		"SELECT " + models.ColName + " FROM " + table + " LIMIT 5",
	}
}

// Reporter runs queries against a store and writes each result to Out.
type Reporter struct {
	Store  Querier
	Out    io.Writer
	Format ReportFormat
	Title  string // HTML title (optional)
}

// Run executes queries in order. before, if non-nil, is called with each
// statement just before it runs. Text and JSON results are written as each
// query completes; HTML is written once all queries succeed. The first
// failing query aborts the run.
func (r *Reporter) Run(ctx context.Context, queries []string, before func(query string)) ([]*models.ResultSet, error) {
	results := make([]*models.ResultSet, 0, len(queries))
	for _, q := range queries {
		if before != nil {
			before(q)
		}
		rs, err := r.Store.Query(ctx, q)
		if err != nil {
			return results, err
		}
		results = append(results, rs)

		switch r.Format {
		case FormatJSON:
			err = writeJSON(r.Out, rs)
		case FormatHTML:
			// rendered below
		default:
			err = writeText(r.Out, rs)
		}
		if err != nil {
			return results, fmt.Errorf("render result of %q: %w", q, err)
		}
	}

	if r.Format == FormatHTML {
		html, err := GenerateHTML(results, r.Title)
		if err != nil {
			return results, err
		}
		if _, err := io.WriteString(r.Out, html); err != nil {
			return results, fmt.Errorf("write report: %w", err)
		}
	}
	return results, nil
}

// ════════════════════════════════════════════════════════════════════
// Renderers
// ════════════════════════════════════════════════════════════════════

func writeText(w io.Writer, rs *models.ResultSet) error {
	line := strings.Repeat("─", 60)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", rs.Query)
	fmt.Fprintf(&buf, "%s\n", line)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rs.Columns, "\t"))
	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(&buf, "(%d rows)\n\n", len(rs.Rows))

	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSON(w io.Writer, rs *models.ResultSet) error {
	enc := json.NewEncoder(w)
	return enc.Encode(rs)
}

// FormatValue renders a scanned column value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.DateTime)
	default:
		return fmt.Sprint(x)
	}
}

// htmlResult is the template view of one result set.
type htmlResult struct {
	Query   string
	Columns []string
	Rows    [][]htmlCell
}

type htmlCell struct {
	Text    string
	Numeric bool
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

// GenerateHTML renders result sets into a standalone HTML page.
func GenerateHTML(results []*models.ResultSet, title string) (string, error) {
	if title == "" {
		title = "Largest banks"
	}

	data := struct {
		Title       string
		GeneratedAt string
		Results     []htmlResult
	}{Title: title, GeneratedAt: time.Now().Format(time.DateTime)}

	for _, rs := range results {
		hr := htmlResult{Query: rs.Query, Columns: rs.Columns}
		for _, row := range rs.Rows {
			cells := make([]htmlCell, len(row))
			for i, v := range row {
				cells[i] = htmlCell{Text: FormatValue(v), Numeric: isNumeric(v)}
			}
			hr.Rows = append(hr.Rows, cells)
		}
		data.Results = append(data.Results, hr)
	}

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}
