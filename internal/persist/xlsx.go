package persist

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/bankcap/pkg/models"
)

// DefaultSheet is the worksheet name used when none is given.
const DefaultSheet = "Largest_banks"

// WriteXLSX writes rows to a single-sheet workbook at path, replacing any
// existing file.
func WriteXLSX(path, sheet string, rows []models.AugmentedRow) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, 0, len(models.Columns()))
	for _, c := range models.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.Values()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	return replaceFile(path, func(w io.Writer) error {
		return f.Write(w)
	})
}
