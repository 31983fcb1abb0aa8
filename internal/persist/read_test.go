package persist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/bankcap/pkg/models"
)

// readCSV reads back a file produced by WriteCSV.
func readCSV(path string) ([]models.AugmentedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeCSV(f)
}

// decodeCSV parses CSV text produced by EncodeCSV.
func decodeCSV(r io.Reader) ([]models.AugmentedRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(models.Columns())

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, models.Columns()) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var rows []models.AugmentedRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		var nums [4]float64
		for i := range nums {
			nums[i], err = strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, models.Columns()[i+1], err)
			}
		}
		rows = append(rows, models.AugmentedRow{
			Row:          models.Row{Name: rec[0], MarketCapUSD: nums[0]},
			MarketCapGBP: nums[1],
			MarketCapEUR: nums[2],
			MarketCapINR: nums[3],
		})
	}
	return rows, nil
}

// readXLSX reads the rows written by WriteXLSX.
func readXLSX(path, sheet string) ([]models.AugmentedRow, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !slices.Equal(records[0], models.Columns()) {
		return nil, fmt.Errorf("sheet %s: missing or unexpected header", sheet)
	}

	rows := make([]models.AugmentedRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(models.Columns()) {
			return nil, fmt.Errorf("sheet %s row %d: expected %d cells, found %d", sheet, i+2, len(models.Columns()), len(rec))
		}
		var nums [4]float64
		for j := range nums {
			nums[j], err = strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
			}
		}
		rows = append(rows, models.AugmentedRow{
			Row:          models.Row{Name: rec[0], MarketCapUSD: nums[0]},
			MarketCapGBP: nums[1],
			MarketCapEUR: nums[2],
			MarketCapINR: nums[3],
		})
	}
	return rows, nil
}
