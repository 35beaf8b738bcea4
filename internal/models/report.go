package models

// WorkType is the kind of work a closure report item describes.
type WorkType string

const (
	WorkInstallation WorkType = "INSTALACION"
	WorkRepair       WorkType = "REPARACION"
	WorkMaintenance  WorkType = "MANTENIMIENTO"
)

// WorkTypes lists the recognised work types.
var WorkTypes = []WorkType{WorkInstallation, WorkRepair, WorkMaintenance}

// Valid reports whether t is one of the recognised work types.
func (t WorkType) Valid() bool {
	for _, w := range WorkTypes {
		if t == w {
			return true
		}
	}
	return false
}

// Category is a named cost line inside an item's breakdown.
type Category string

const (
	CatInstallation Category = "instalacion"
	CatRepair       Category = "reparacion"
	CatTravel       Category = "desplazamiento"
	CatDistance     Category = "km"
	CatMeals        Category = "comida"
	CatMaterials    Category = "material"
	CatBattery      Category = "bateria"
	CatVehicle      Category = "furgon"
	CatFixedFee     Category = "fijo"
)

// Categories holds every breakdown category in canonical order.
// The order is part of the fingerprint contract and must not change.
var Categories = []Category{
	CatInstallation,
	CatRepair,
	CatTravel,
	CatDistance,
	CatMeals,
	CatMaterials,
	CatBattery,
	CatVehicle,
	CatFixedFee,
}

// Breakdown maps cost categories to amounts in cents.
type Breakdown map[Category]int64

// Clone returns an independent copy; a nil breakdown clones to an empty one.
func (b Breakdown) Clone() Breakdown {
	out := make(Breakdown, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ReportHeader holds the header fields detected in one closure report.
type ReportHeader struct {
	Technician         string `json:"tech"`
	Date               string `json:"date"`
	DeclaredTotalCents int64  `json:"total_pdf_cents"`
	Filename           string `json:"filename"`
}

// WorkItem is one billable line item detected in a report.
// UID stays empty until the parser has closed every item.
type WorkItem struct {
	UID         string    `json:"uid"`
	Date        string    `json:"date"`
	Type        WorkType  `json:"type"`
	ClientID    string    `json:"client_id"`
	TotalCents  int64     `json:"total_cents"`
	Breakdown   Breakdown `json:"breakdown_cents"`
	Technicians []string  `json:"techs_in_part"`
	Observation string    `json:"obs"`
}

// ParsedReport is the outcome of parsing one report's text.
type ParsedReport struct {
	Header             ReportHeader `json:"header"`
	Items              []WorkItem   `json:"parts"`
	ComputedTotalCents int64        `json:"calc_total_cents"`
	Errors             []string     `json:"errors"`
}

// TotalDifferenceCents returns declared minus computed total.
func (r *ParsedReport) TotalDifferenceCents() int64 {
	return r.Header.DeclaredTotalCents - r.ComputedTotalCents
}

// Status classifies the report for review.
func (r *ParsedReport) Status() Status {
	return ClassifyStatus(len(r.Errors), r.Header.DeclaredTotalCents, r.ComputedTotalCents)
}
