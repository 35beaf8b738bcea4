// Package reconcile folds parsed closure reports into the deduplicated
// intervention record.
//
// An item whose fingerprint is already known, either in the store or earlier
// in the same call, is a duplicate: its stored fields are kept as first seen
// and only a provenance entry for the current batch is appended, once.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// ErrLookup marks failures of the intervention lookup. Such failures abort
// the whole call and never degrade into "treat everything as new".
var ErrLookup = errors.New("intervention lookup failed")

// ErrBatchIDs is returned when the batch identifiers do not pair up with the reports.
var ErrBatchIDs = errors.New("one batch id per report is required")

// LookupError wraps a lookup failure for one fingerprint.
type LookupError struct {
	UID string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrLookup, e.UID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrLookup) match any LookupError.
func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// Lookup finds stored interventions by fingerprint. An absent intervention
// is reported as (nil, nil); a non-nil error means the store itself failed.
type Lookup interface {
	GetByFingerprint(ctx context.Context, uid string) (*models.Intervention, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, uid string) (*models.Intervention, error)

func (f LookupFunc) GetByFingerprint(ctx context.Context, uid string) (*models.Intervention, error) {
	return f(ctx, uid)
}

// Result is the write-set produced by one reconciliation.
type Result struct {
	New             []models.Intervention
	Updated         []models.Intervention
	Batches         []models.ImportBatch
	TotalNew        int
	TotalDuplicates int
}

// Interventions returns every intervention to persist, new ones first.
func (r *Result) Interventions() []models.Intervention {
	out := make([]models.Intervention, 0, len(r.New)+len(r.Updated))
	out = append(out, r.New...)
	return append(out, r.Updated...)
}

// pending is one intervention touched during the current call.
type pending struct {
	iv    models.Intervention
	isNew bool
}

type workingSet struct {
	byUID      map[string]*pending
	newOrder   []string
	touchOrder []string
}

// Reconcile classifies every item of reports, in report order then item
// order, as new or duplicate. batchIDs[i] identifies reports[i]; every
// provenance entry and batch record carries importedAt.
//
// The store is consulted only for fingerprints not already seen in this
// call, and lookups run one at a time.
func Reconcile(ctx context.Context, reports []*models.ParsedReport, lookup Lookup, batchIDs []string, importedAt time.Time) (*Result, error) {
	if len(batchIDs) != len(reports) {
		return nil, fmt.Errorf("%w: got %d ids for %d reports", ErrBatchIDs, len(batchIDs), len(reports))
	}

	ws := &workingSet{byUID: make(map[string]*pending)}
	res := &Result{
		New:     []models.Intervention{},
		Updated: []models.Intervention{},
		Batches: make([]models.ImportBatch, 0, len(reports)),
	}

	for i, report := range reports {
		batchID := batchIDs[i]
		source := models.Source{
			ImportID:            batchID,
			Filename:            report.Header.Filename,
			ReportingTechnician: report.Header.Technician,
			ImportedAt:          importedAt,
		}

		var newCount, dupCount int
		for _, item := range report.Items {
			isNew, err := ws.apply(ctx, lookup, item, source, importedAt)
			if err != nil {
				return nil, err
			}
			if isNew {
				newCount++
			} else {
				dupCount++
			}
		}

		res.Batches = append(res.Batches, models.ImportBatch{
			ImportID:           batchID,
			DateDetected:       report.Header.Date,
			TechDetected:       report.Header.Technician,
			Filename:           report.Header.Filename,
			DeclaredTotalCents: report.Header.DeclaredTotalCents,
			ComputedTotalCents: report.ComputedTotalCents,
			PartsDetected:      len(report.Items),
			NewInterventions:   newCount,
			Duplicates:         dupCount,
			ParseErrors:        append([]string{}, report.Errors...),
			ImportedAt:         importedAt,
		})
		res.TotalNew += newCount
		res.TotalDuplicates += dupCount
	}

	for _, uid := range ws.newOrder {
		res.New = append(res.New, ws.byUID[uid].iv)
	}
	for _, uid := range ws.touchOrder {
		if p := ws.byUID[uid]; !p.isNew {
			res.Updated = append(res.Updated, p.iv)
		}
	}
	return res, nil
}

// apply folds one item into the working set and reports whether it created
// a new intervention.
func (ws *workingSet) apply(ctx context.Context, lookup Lookup, item models.WorkItem, source models.Source, importedAt time.Time) (bool, error) {
	if p, ok := ws.byUID[item.UID]; ok {
		addSource(&p.iv, source)
		return false, nil
	}

	existing, err := lookup.GetByFingerprint(ctx, item.UID)
	if err != nil {
		return false, &LookupError{UID: item.UID, Err: err}
	}

	if existing == nil {
		ws.byUID[item.UID] = &pending{iv: fromItem(item, source, importedAt), isNew: true}
		ws.newOrder = append(ws.newOrder, item.UID)
		ws.touchOrder = append(ws.touchOrder, item.UID)
		return true, nil
	}

	// First-seen values stay authoritative; only provenance grows.
	iv := existing.Clone()
	addSource(&iv, source)
	ws.byUID[item.UID] = &pending{iv: iv}
	ws.touchOrder = append(ws.touchOrder, item.UID)
	return false, nil
}

// addSource appends source unless its batch is already recorded, which keeps
// a retried reconciliation of the same batch idempotent.
func addSource(iv *models.Intervention, source models.Source) {
	if iv.HasSource(source.ImportID) {
		return
	}
	iv.Sources = append(iv.Sources, source)
}

func fromItem(item models.WorkItem, source models.Source, importedAt time.Time) models.Intervention {
	return models.Intervention{
		UID:         item.UID,
		Date:        item.Date,
		Type:        item.Type,
		ClientID:    item.ClientID,
		TotalCents:  item.TotalCents,
		Breakdown:   item.Breakdown.Clone(),
		Technicians: append([]string{}, item.Technicians...),
		Observation: item.Observation,
		Sources:     []models.Source{source},
		CreatedAt:   importedAt,
	}
}
