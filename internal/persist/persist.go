package persist

import (
	"context"
	"fmt"

	"github.com/seenimoa/bankcap/pkg/models"
)

// Destinations named in PersistError.
const (
	DestCSV   = "csv"
	DestXLSX  = "xlsx"
	DestTable = "table"
)

// PersistError reports a failed write to one destination.
type PersistError struct {
	Destination string
	Target      string // file path or table name
	Err         error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Destination, e.Target, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// TableWriter replaces a relational table with rows.
type TableWriter interface {
	ReplaceTable(ctx context.Context, table string, rows []models.AugmentedRow) error
}

// Persister writes augmented rows to the flat files and the relational table.
// The destinations are independent: a failure after the files are written
// leaves the table at its previous state.
type Persister struct {
	CSVPath  string
	XLSXPath string // optional; empty disables the workbook
	Sheet    string
	Table    string
}

// SaveFiles writes the CSV file and, when configured, the workbook.
func (p *Persister) SaveFiles(rows []models.AugmentedRow) error {
	if err := WriteCSV(p.CSVPath, rows); err != nil {
		return &PersistError{Destination: DestCSV, Target: p.CSVPath, Err: err}
	}
	if p.XLSXPath != "" {
		if err := WriteXLSX(p.XLSXPath, p.Sheet, rows); err != nil {
			return &PersistError{Destination: DestXLSX, Target: p.XLSXPath, Err: err}
		}
	}
	return nil
}

// Load replaces the configured table with rows.
func (p *Persister) Load(ctx context.Context, w TableWriter, rows []models.AugmentedRow) error {
	if err := w.ReplaceTable(ctx, p.Table, rows); err != nil {
		return &PersistError{Destination: DestTable, Target: p.Table, Err: err}
	}
	return nil
}
