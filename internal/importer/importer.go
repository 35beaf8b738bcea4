// Package importer runs the two-step import workflow: Preview parses reports
// and counts new versus duplicate items without writing, Commit reconciles
// and persists them in one transaction.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/closure-importer/internal/config"
	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/parser"
	"github.com/insightdelivered/closure-importer/internal/reconcile"
	"github.com/insightdelivered/closure-importer/internal/store"
)

// ErrBlocked is returned by Commit when any preview has fatal errors.
var ErrBlocked = errors.New("import blocked by reports with errors")

// Document is one report to import. Text wins over Data, Data over Path.
type Document struct {
	Label string
	Text  string
	Data  []byte
	Path  string
}

// DocumentFromFile builds a Document for path. Plain-text files are read
// directly; anything else is left for the extractor.
func DocumentFromFile(path string) (Document, error) {
	doc := Document{Label: filepath.Base(path), Path: path}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			return doc, fmt.Errorf("failed to read %q: %w", path, err)
		}
		doc.Text = string(data)
		doc.Path = ""
	}
	return doc, nil
}

// Extractor turns PDF input into report text.
type Extractor interface {
	ExtractFile(path string) (string, error)
	ExtractBytes(data []byte) (string, error)
}

// Repository is the persistence the workflow needs.
type Repository interface {
	reconcile.Lookup
	Commit(ctx context.Context, interventions []models.Intervention, imports []models.ImportBatch) error
	MetaSet(ctx context.Context, k string, v any) error
}

// Preview is the review row of one report.
type Preview struct {
	Label           string               `json:"label"`
	Report          *models.ParsedReport `json:"report"`
	New             int                  `json:"new"`
	Duplicates      int                  `json:"dupes"`
	DifferenceCents int64                `json:"difference_cents"`
	Status          models.Status        `json:"status"`
}

// Outcome summarises a committed import.
type Outcome struct {
	Batches    []models.ImportBatch `json:"batches"`
	New        int                  `json:"new"`
	Duplicates int                  `json:"dupes"`
	LastDate   string               `json:"last_date"`
}

// Importer wires extraction, parsing, reconciliation and persistence.
type Importer struct {
	repo      Repository
	extractor Extractor
	log       *logrus.Logger
	newID     func() string
	now       func() time.Time
	workers   int
}

// Option configures an Importer.
type Option func(*Importer)

// WithIDSource replaces the uuid batch identifier source.
func WithIDSource(f func() string) Option {
	return func(i *Importer) { i.newID = f }
}

// WithClock replaces time.Now.
func WithClock(f func() time.Time) Option {
	return func(i *Importer) { i.now = f }
}

// WithConcurrency bounds how many documents are extracted at once.
func WithConcurrency(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.workers = n
		}
	}
}

// New creates an Importer. extractor may be nil when only text is imported.
func New(repo Repository, extractor Extractor, log *logrus.Logger, opts ...Option) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	i := &Importer{
		repo:      repo,
		extractor: extractor,
		log:       log,
		newID:     uuid.NewString,
		now:       time.Now,
		workers:   4,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Preview parses every document and counts, against the store and against
// earlier documents of the same call, how many items are new. Nothing is
// written. Extraction failures become ERROR rows; only store failures abort.
func (i *Importer) Preview(ctx context.Context, docs []Document) ([]Preview, error) {
	reports := make([]*models.ParsedReport, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for n, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[n] = i.parse(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, len(reports))
	for n := range ids {
		ids[n] = fmt.Sprintf("preview-%d", n)
	}
	res, err := reconcile.Reconcile(ctx, reports, i.repo, ids, i.now())
	if err != nil {
		config.LogError(i.log, "importer", "Preview", "dry-run reconcile", len(docs), err)
		return nil, err
	}

	previews := make([]Preview, len(reports))
	for n, r := range reports {
		previews[n] = Preview{
			Label:           docs[n].Label,
			Report:          r,
			New:             res.Batches[n].NewInterventions,
			Duplicates:      res.Batches[n].Duplicates,
			DifferenceCents: r.TotalDifferenceCents(),
			Status:          r.Status(),
		}
	}

	i.log.WithFields(logrus.Fields{
		"reports":    len(previews),
		"new":        res.TotalNew,
		"duplicates": res.TotalDuplicates,
	}).Info("import preview")
	return previews, nil
}

func (i *Importer) parse(doc Document) *models.ParsedReport {
	text, err := i.text(doc)
	if err != nil {
		i.log.WithFields(logrus.Fields{"label": doc.Label, "error": err}).Warn("report extraction failed")
		return parser.Failed(doc.Label, err)
	}
	return parser.Parse(text, doc.Label)
}

func (i *Importer) text(doc Document) (string, error) {
	switch {
	case doc.Text != "":
		return doc.Text, nil
	case i.extractor == nil && (doc.Data != nil || doc.Path != ""):
		return "", errors.New("no PDF extractor configured")
	case doc.Data != nil:
		return i.extractor.ExtractBytes(doc.Data)
	case doc.Path != "":
		return i.extractor.ExtractFile(doc.Path)
	default:
		return "", errors.New("empty document")
	}
}

// Blocked reports whether any preview has fatal errors.
func Blocked(previews []Preview) bool {
	for _, p := range previews {
		if p.Status == models.StatusError {
			return true
		}
	}
	return false
}

// Commit reconciles the previewed reports with fresh batch identifiers and
// one shared timestamp, persists the write-set atomically and remembers the
// latest report date for the dashboard.
func (i *Importer) Commit(ctx context.Context, previews []Preview) (*Outcome, error) {
	if Blocked(previews) {
		var labels []string
		for _, p := range previews {
			if p.Status == models.StatusError {
				labels = append(labels, p.Label)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrBlocked, strings.Join(labels, ", "))
	}
	if len(previews) == 0 {
		return &Outcome{Batches: []models.ImportBatch{}}, nil
	}

	reports := make([]*models.ParsedReport, len(previews))
	ids := make([]string, len(previews))
	lastDate := ""
	for n, p := range previews {
		reports[n] = p.Report
		ids[n] = i.newID()
		if d := p.Report.Header.Date; d > lastDate {
			lastDate = d
		}
	}
	importedAt := i.now()

	res, err := reconcile.Reconcile(ctx, reports, i.repo, ids, importedAt)
	if err != nil {
		config.LogError(i.log, "importer", "Commit", "reconcile", ids, err)
		return nil, err
	}
	if err := i.repo.Commit(ctx, res.Interventions(), res.Batches); err != nil {
		config.LogError(i.log, "importer", "Commit", "persist write-set", ids, err)
		return nil, fmt.Errorf("failed to persist import: %w", err)
	}
	// The write-set is durable at this point. A lost date memo only moves the
	// dashboard default, so it must not report the import as failed.
	if lastDate != "" {
		if err := i.repo.MetaSet(ctx, store.MetaLastSelectedDate, lastDate); err != nil {
			config.LogError(i.log, "importer", "Commit", "remember date", lastDate, err)
		}
	}

	i.log.WithFields(logrus.Fields{
		"batches":    len(res.Batches),
		"new":        res.TotalNew,
		"duplicates": res.TotalDuplicates,
		"last_date":  lastDate,
	}).Info("import committed")

	return &Outcome{
		Batches:    res.Batches,
		New:        res.TotalNew,
		Duplicates: res.TotalDuplicates,
		LastDate:   lastDate,
	}, nil
}

// Import previews docs and commits them when none is blocked. The previews
// are returned in both cases.
func (i *Importer) Import(ctx context.Context, docs []Document) ([]Preview, *Outcome, error) {
	previews, err := i.Preview(ctx, docs)
	if err != nil {
		return nil, nil, err
	}
	out, err := i.Commit(ctx, previews)
	return previews, out, err
}
