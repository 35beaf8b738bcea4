package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/money"
)

const sheetName = "Intervenciones"

// XLSXWriter writes interventions to a spreadsheet with numeric euro cells.
type XLSXWriter struct{}

// WriteToFile writes interventions to an XLSX file at the given path.
func (w *XLSXWriter) WriteToFile(path string, items []models.Intervention) error {
	f, err := w.build(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %q: %w", path, err)
	}
	return nil
}

// Write writes the XLSX document to out.
func (w *XLSXWriter) Write(out io.Writer, items []models.Intervention) error {
	f, err := w.build(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}

func (w *XLSXWriter) build(items []models.Intervention) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, h := range Columns() {
		if err := setCell(f, col, 1, h); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, iv := range items {
		for col, v := range xlsxRow(iv) {
			if err := setCell(f, col, i+2, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func xlsxRow(iv models.Intervention) []any {
	total, _ := money.ToEuros(iv.TotalCents).Float64()
	row := []any{iv.Date, string(iv.Type), iv.ClientID, total}
	for _, c := range models.Categories {
		v, _ := money.ToEuros(iv.Breakdown[c]).Float64()
		row = append(row, v)
	}
	return append(row, strings.Join(iv.Technicians, " + "), len(iv.Sources), iv.UID)
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Errorf("failed to address cell: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, v); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	return nil
}
