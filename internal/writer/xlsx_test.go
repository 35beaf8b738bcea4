package writer

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &XLSXWriter{}
	if err := w.Write(&buf, sampleInterventions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a valid spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "date" || rows[0][15] != "uid" {
		t.Errorf("header: got %v", rows[0])
	}

	tests := []struct {
		cell     string
		expected string
	}{
		{"A2", "2024-03-10"},
		{"C2", "4021"},
		{"D2", "1258.7"},
		{"G2", "25"},
		{"N2", "Ana + Luis"},
		{"O2", "2"},
		{"P2", "d6340d44"},
		{"F3", "40"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(sheetName, tt.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.cell, got, tt.expected)
		}
	}
}
