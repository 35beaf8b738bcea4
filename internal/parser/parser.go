// Package parser turns the text of a technician's daily closure report into
// a header and an ordered list of work items.
//
// Parsing never fails: missing header fields and incomplete items are
// recorded as messages next to whatever could be extracted, so a reviewer
// can correct the report and import it again.
package parser

import (
	"fmt"

	"github.com/insightdelivered/closure-importer/internal/fingerprint"
	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/money"
)

// Header error messages.
const (
	ErrMissingDate       = "No se detectó la Fecha en cabecera."
	ErrMissingTechnician = "No se detectó el Técnico en cabecera."
	ErrMissingTotal      = "No se detectó el TOTAL DEL DÍA en cabecera."
)

type state int

const (
	stateNoItem state = iota
	stateInItem
)

// machine is the line-oriented segmenter. It owns the item being built
// until the next item-start marker or the end of input closes it.
type machine struct {
	label  string
	date   string
	state  state
	cur    *models.WorkItem
	items  []models.WorkItem
	errors []string
}

// Parse parses one report. label names the report in error messages,
// usually its filename.
func Parse(text, label string) *models.ParsedReport {
	text = normalizeText(text)

	header := parseHeader(text, label)
	errs := []string{}
	if header.Date == "" {
		errs = append(errs, ErrMissingDate)
	}
	if header.Technician == "" {
		errs = append(errs, ErrMissingTechnician)
	}
	if header.DeclaredTotalCents == 0 {
		errs = append(errs, ErrMissingTotal)
	}

	m := &machine{label: label, date: header.Date, items: []models.WorkItem{}, errors: errs}
	for _, line := range splitLines(text) {
		m.feed(line)
	}
	m.finish()

	report := &models.ParsedReport{
		Header: header,
		Items:  m.items,
		Errors: m.errors,
	}
	for _, it := range report.Items {
		report.ComputedTotalCents += it.TotalCents
	}

	// Later lines can still change an item until it closes, so identities
	// are assigned only once every item is final.
	for i := range report.Items {
		report.Items[i].UID = fingerprint.ForItem(&report.Items[i])
	}
	return report
}

// Failed builds the result for a report whose text could not be obtained.
// It carries no items and a single explanatory error so other reports in the
// same operation are processed normally.
func Failed(label string, cause error) *models.ParsedReport {
	return &models.ParsedReport{
		Header: models.ReportHeader{Filename: label},
		Items:  []models.WorkItem{},
		Errors: []string{fmt.Sprintf("Error leyendo PDF (%s): %v", label, cause)},
	}
}

func parseHeader(text, label string) models.ReportHeader {
	return models.ReportHeader{
		Technician:         firstSubmatch(technicianPattern, text),
		Date:               firstSubmatch(datePattern, text),
		DeclaredTotalCents: money.AmountToCents(firstSubmatch(declaredTotalPattern, text)),
		Filename:           label,
	}
}

func (m *machine) feed(line string) {
	if start := itemStartPattern.FindStringSubmatch(line); start != nil {
		m.closeItem()
		m.cur = &models.WorkItem{
			Date:        m.date,
			Type:        workTypeFromLabel(start[1]),
			ClientID:    start[2],
			Breakdown:   models.Breakdown{},
			Technicians: []string{},
		}
		m.state = stateInItem
		return
	}

	if m.state == stateNoItem {
		return
	}

	// Sub-lines in priority order; the first match consumes the line.
	if v := techListPattern.FindStringSubmatch(line); v != nil {
		m.cur.Technicians = splitTechnicians(v[1])
		return
	}
	if v := itemTotalPattern.FindStringSubmatch(line); v != nil {
		m.cur.TotalCents = money.AmountToCents(v[1])
		return
	}
	if v := observationPattern.FindStringSubmatch(line); v != nil {
		// Last observation wins.
		m.cur.Observation = v[1]
		return
	}
	if v := breakdownPattern.FindStringSubmatch(line); v != nil {
		// Unknown labels are decoration; last value per category wins.
		if cat, ok := matchCategory(v[1]); ok {
			m.cur.Breakdown[cat] = money.AmountToCents(v[2])
		}
		return
	}
}

func (m *machine) finish() {
	m.closeItem()
	m.state = stateNoItem
}

// closeItem validates and emits the open item, if any. Incomplete items are
// still emitted so the defect can be surfaced for correction.
func (m *machine) closeItem() {
	if m.cur == nil {
		return
	}
	it := m.cur
	if it.Type == "" {
		m.errors = append(m.errors, fmt.Sprintf("Parte sin tipo (%s).", m.label))
	}
	if it.ClientID == "" {
		m.errors = append(m.errors, fmt.Sprintf("Parte sin cliente (%s).", m.label))
	}
	if it.TotalCents == 0 {
		client := it.ClientID
		if client == "" {
			client = "?"
		}
		m.errors = append(m.errors, fmt.Sprintf("Parte sin total (%s) cliente %s.", m.label, client))
	}
	m.items = append(m.items, *it)
	m.cur = nil
}
