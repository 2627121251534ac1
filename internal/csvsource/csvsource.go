// Package csvsource reads vendor return files into credit rows. Two
// container formats carry the same eight columns: plain CSV and xlsx
// workbooks exported from the vendor portal.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// Column headers as the vendor portal emits them. Matching is
// case-insensitive and ignores surrounding whitespace.
var headerFields = map[string]func(*models.CreditRow, string){
	"order no":     func(r *models.CreditRow, v string) { r.OrderNo = v },
	"narda number": func(r *models.CreditRow, v string) { r.NardaNumber = v },
	"part":         func(r *models.CreditRow, v string) { r.Part = v },
	"description":  func(r *models.CreditRow, v string) { r.Description = v },
	"price":        func(r *models.CreditRow, v string) { r.Price = v },
	"quantity":     func(r *models.CreditRow, v string) { r.Quantity = v },
	"total":        func(r *models.CreditRow, v string) { r.Total = v },
	"date ordered": func(r *models.CreditRow, v string) { r.DateOrdered = v },
}

// ReadFile dispatches on extension: .xlsx goes through excelize, anything
// else is treated as CSV.
func ReadFile(path string) ([]models.CreditRow, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSXFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open return file %q: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read return file %q: %w", path, err)
	}
	return rows, nil
}

// ReadCSV parses a return file from a reader. The first record must be
// the header row; unknown columns are ignored, missing known columns
// leave their fields empty. Rows with no order number and no NARDA
// number are dropped as filler.
func ReadCSV(r io.Reader) ([]models.CreditRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("return file is empty")
	}

	return rowsFromRecords(records)
}

// ReadXLSXFile reads the first sheet of an xlsx workbook as a return
// file with the same header conventions as the CSV form.
func ReadXLSXFile(path string) ([]models.CreditRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %q has no sheets", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	rows, err := rowsFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("workbook %q: %w", path, err)
	}
	return rows, nil
}

func rowsFromRecords(records [][]string) ([]models.CreditRow, error) {
	setters, err := headerSetters(records[0])
	if err != nil {
		return nil, err
	}

	var rows []models.CreditRow
	for _, record := range records[1:] {
		var row models.CreditRow
		for i, set := range setters {
			if set == nil || i >= len(record) {
				continue
			}
			set(&row, strings.TrimSpace(record[i]))
		}
		if row.OrderNo == "" && row.NardaNumber == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerSetters maps each header cell to its field setter, nil for
// columns we do not recognize. At least one known column is required,
// otherwise the file is not a return file at all.
func headerSetters(header []string) ([]func(*models.CreditRow, string), error) {
	setters := make([]func(*models.CreditRow, string), len(header))
	known := 0
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if set, ok := headerFields[key]; ok {
			setters[i] = set
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("no recognized columns in header %v", header)
	}
	return setters, nil
}
