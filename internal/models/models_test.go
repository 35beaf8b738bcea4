package models

import "testing"

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		errs     int
		declared int64
		computed int64
		expected Status
	}{
		{"exact", 0, 16500, 16500, StatusOK},
		{"one cent over", 0, 16501, 16500, StatusOK},
		{"one cent under", 0, 16499, 16500, StatusOK},
		{"two cents", 0, 16502, 16500, StatusMismatch},
		{"declared missing", 0, 0, 16500, StatusMismatch},
		{"errors win", 1, 16500, 16500, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStatus(tt.errs, tt.declared, tt.computed); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWorkTypeValid(t *testing.T) {
	for _, wt := range WorkTypes {
		if !wt.Valid() {
			t.Errorf("%s should be valid", wt)
		}
	}
	if WorkType("PINTURA").Valid() || WorkType("").Valid() {
		t.Error("unknown types should be invalid")
	}
}

func TestInterventionClone(t *testing.T) {
	iv := Intervention{
		UID:         "d6340d44",
		Breakdown:   Breakdown{CatInstallation: 100},
		Technicians: []string{"Ana"},
		Sources:     []Source{{ImportID: "a"}},
	}

	c := iv.Clone()
	c.Breakdown[CatInstallation] = 1
	c.Technicians[0] = "Luis"
	c.Sources = append(c.Sources, Source{ImportID: "b"})
	c.Sources[0].ImportID = "z"

	if iv.Breakdown[CatInstallation] != 100 || iv.Technicians[0] != "Ana" {
		t.Errorf("clone shares collections: %+v", iv)
	}
	if len(iv.Sources) != 1 || iv.Sources[0].ImportID != "a" {
		t.Errorf("clone shares sources: %+v", iv.Sources)
	}
	if !c.HasSource("b") || iv.HasSource("b") {
		t.Error("HasSource mismatch")
	}
}

func TestReportStatus(t *testing.T) {
	r := &ParsedReport{
		Header:             ReportHeader{DeclaredTotalCents: 16500},
		ComputedTotalCents: 16300,
		Errors:             []string{},
	}
	if r.TotalDifferenceCents() != 200 || r.Status() != StatusMismatch {
		t.Errorf("got diff %d status %s", r.TotalDifferenceCents(), r.Status())
	}

	b := &ImportBatch{DeclaredTotalCents: 100, ComputedTotalCents: 100, ParseErrors: []string{"x"}}
	if b.Status() != StatusError {
		t.Errorf("batch status: got %s", b.Status())
	}
}
