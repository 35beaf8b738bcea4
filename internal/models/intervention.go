package models

import "time"

// Source records that an import batch reported an intervention.
type Source struct {
	ImportID            string    `json:"import_id"`
	Filename            string    `json:"filename"`
	ReportingTechnician string    `json:"tech_closure"`
	ImportedAt          time.Time `json:"imported_at"`
}

// Intervention is a deduplicated work item keyed by its fingerprint.
type Intervention struct {
	UID         string    `json:"uid"`
	Date        string    `json:"date"`
	Type        WorkType  `json:"type"`
	ClientID    string    `json:"client_id"`
	TotalCents  int64     `json:"total_cents"`
	Breakdown   Breakdown `json:"breakdown_cents"`
	Technicians []string  `json:"techs_in_part"`
	Observation string    `json:"obs"`
	Sources     []Source  `json:"sources"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasSource reports whether importID already appears in the provenance list.
func (iv *Intervention) HasSource(importID string) bool {
	for _, s := range iv.Sources {
		if s.ImportID == importID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (iv Intervention) Clone() Intervention {
	out := iv
	out.Breakdown = iv.Breakdown.Clone()
	out.Technicians = append([]string{}, iv.Technicians...)
	out.Sources = append([]Source{}, iv.Sources...)
	return out
}

// ImportBatch summarises one processed report.
type ImportBatch struct {
	ImportID           string    `json:"import_id"`
	DateDetected       string    `json:"date_detected"`
	TechDetected       string    `json:"tech_detected"`
	Filename           string    `json:"filename"`
	DeclaredTotalCents int64     `json:"pdf_total_cents"`
	ComputedTotalCents int64     `json:"calc_total_cents"`
	PartsDetected      int       `json:"parts_detected"`
	NewInterventions   int       `json:"new_interventions"`
	Duplicates         int       `json:"dupes"`
	ParseErrors        []string  `json:"parse_errors"`
	ImportedAt         time.Time `json:"imported_at"`
}

// Status classifies the batch the same way its report was classified.
func (b *ImportBatch) Status() Status {
	return ClassifyStatus(len(b.ParseErrors), b.DeclaredTotalCents, b.ComputedTotalCents)
}

// Status is the review classification of a report or batch.
type Status string

const (
	StatusOK       Status = "OK"
	StatusMismatch Status = "MISMATCH"
	StatusError    Status = "ERROR"
)

// TotalTolerance is the declared/computed difference absorbed as rounding.
const TotalTolerance = 1

// ClassifyStatus returns ERROR when errors were recorded, MISMATCH when the
// totals differ by more than TotalTolerance, OK otherwise.
func ClassifyStatus(errCount int, declared, computed int64) Status {
	if errCount > 0 {
		return StatusError
	}
	diff := declared - computed
	if diff < 0 {
		diff = -diff
	}
	if diff > TotalTolerance {
		return StatusMismatch
	}
	return StatusOK
}
