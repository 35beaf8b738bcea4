package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/money"
)

// Columns is the export header. Category columns follow models.Categories.
func Columns() []string {
	cols := []string{"date", "type", "client_id", "total"}
	for _, c := range models.Categories {
		cols = append(cols, string(c))
	}
	return append(cols, "techs_in_part", "sources_count", "uid")
}

// CSVWriter writes interventions to CSV format.
type CSVWriter struct{}

// WriteToFile writes interventions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, items []models.Intervention) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, items)
}

// Write writes interventions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, items []models.Intervention) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(Columns()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, iv := range items {
		if err := writer.Write(csvRow(iv)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvRow(iv models.Intervention) []string {
	row := []string{
		iv.Date,
		string(iv.Type),
		iv.ClientID,
		money.CentsToDisplay(iv.TotalCents),
	}
	for _, c := range models.Categories {
		row = append(row, money.CentsToDisplay(iv.Breakdown[c]))
	}
	return append(row,
		strings.Join(iv.Technicians, " + "),
		strconv.Itoa(len(iv.Sources)),
		iv.UID,
	)
}
