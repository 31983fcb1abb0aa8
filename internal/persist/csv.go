// Package persist writes augmented bank rows to the flat-file outputs and to
// the relational store. Each destination is replaced wholesale.
package persist

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/seenimoa/bankcap/pkg/models"
)

// WriteCSV writes rows with a header to path. The data goes to a temporary
// file in the same directory which is then renamed over path, so readers
// see either the old file or the complete new one.
func WriteCSV(path string, rows []models.AugmentedRow) error {
	return replaceFile(path, func(w io.Writer) error {
		return EncodeCSV(w, rows)
	})
}

// EncodeCSV writes the header and rows to w.
func EncodeCSV(w io.Writer, rows []models.AugmentedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns()); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Name,
			formatFloat(r.MarketCapUSD),
			formatFloat(r.MarketCapGBP),
			formatFloat(r.MarketCapEUR),
			formatFloat(r.MarketCapINR),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// replaceFile writes via fn to a temp file beside path and renames it into place.
func replaceFile(path string, fn func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = fn(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
