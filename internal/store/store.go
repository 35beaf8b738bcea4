// Package store persists interventions, import batches and UI metadata in a
// local SQLite database.
//
// Every write goes through Commit or Replace, each a single transaction.
// The store assumes one local agent; there is no cross-process locking.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// ErrNotFound is returned by point reads of records that do not exist.
var ErrNotFound = errors.New("not found")

// MetaLastSelectedDate remembers the day the dashboard shows by default.
const MetaLastSelectedDate = "last_selected_date"

// Store is the SQLite-backed record of interventions and imports.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

// Open opens (creating if needed) the database file at path.
func Open(path string, log *logrus.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := New(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and applies the schema.
func New(db *sql.DB, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(GetSchemaSQL()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const interventionColumns = "uid, date, type, client_id, total_cents, breakdown, techs, obs, sources, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntervention(row rowScanner) (*models.Intervention, error) {
	var (
		iv                          models.Intervention
		workType                    string
		breakdown, techs, sourcesJS string
		createdAt                   string
	)
	if err := row.Scan(&iv.UID, &iv.Date, &workType, &iv.ClientID, &iv.TotalCents,
		&breakdown, &techs, &iv.Observation, &sourcesJS, &createdAt); err != nil {
		return nil, err
	}
	iv.Type = models.WorkType(workType)

	if err := json.Unmarshal([]byte(breakdown), &iv.Breakdown); err != nil {
		return nil, fmt.Errorf("intervention %s: bad breakdown: %w", iv.UID, err)
	}
	if err := json.Unmarshal([]byte(techs), &iv.Technicians); err != nil {
		return nil, fmt.Errorf("intervention %s: bad technicians: %w", iv.UID, err)
	}
	if err := json.Unmarshal([]byte(sourcesJS), &iv.Sources); err != nil {
		return nil, fmt.Errorf("intervention %s: bad sources: %w", iv.UID, err)
	}
	if iv.Breakdown == nil {
		iv.Breakdown = models.Breakdown{}
	}
	if iv.Technicians == nil {
		iv.Technicians = []string{}
	}
	if iv.Sources == nil {
		iv.Sources = []models.Source{}
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("intervention %s: bad created_at: %w", iv.UID, err)
	}
	iv.CreatedAt = t
	return &iv, nil
}

// GetByFingerprint returns the intervention with uid, or (nil, nil) when
// there is none. Any other error is an infrastructure failure.
func (s *Store) GetByFingerprint(ctx context.Context, uid string) (*models.Intervention, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+interventionColumns+" FROM interventions WHERE uid = ?", uid)
	iv, err := scanIntervention(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intervention %s: %w", uid, err)
	}
	return iv, nil
}

// Get returns the intervention with uid or ErrNotFound.
func (s *Store) Get(ctx context.Context, uid string) (*models.Intervention, error) {
	iv, err := s.GetByFingerprint(ctx, uid)
	if err != nil {
		return nil, err
	}
	if iv == nil {
		return nil, fmt.Errorf("intervention %s: %w", uid, ErrNotFound)
	}
	return iv, nil
}

// Commit upserts interventions and import batches in one transaction.
// Re-putting an existing key overwrites it.
func (s *Store) Commit(ctx context.Context, interventions []models.Intervention, imports []models.ImportBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer tx.Rollback()

	if err := putInterventions(ctx, tx, interventions); err != nil {
		return err
	}
	if err := putImports(ctx, tx, imports); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"interventions": len(interventions),
		"imports":       len(imports),
	}).Debug("store commit")
	return nil
}

// PutInterventions upserts interventions in one transaction.
func (s *Store) PutInterventions(ctx context.Context, interventions []models.Intervention) error {
	return s.Commit(ctx, interventions, nil)
}

// PutImports upserts import batches in one transaction.
func (s *Store) PutImports(ctx context.Context, imports []models.ImportBatch) error {
	return s.Commit(ctx, nil, imports)
}

func putInterventions(ctx context.Context, tx *sql.Tx, items []models.Intervention) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO interventions ("+interventionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare intervention upsert: %w", err)
	}
	defer stmt.Close()

	for _, iv := range items {
		breakdown, err := marshalOr(iv.Breakdown, "{}")
		if err != nil {
			return err
		}
		techs, err := marshalOr(iv.Technicians, "[]")
		if err != nil {
			return err
		}
		sources, err := marshalOr(iv.Sources, "[]")
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, iv.UID, iv.Date, string(iv.Type), iv.ClientID, iv.TotalCents,
			breakdown, techs, iv.Observation, sources, formatTime(iv.CreatedAt)); err != nil {
			return fmt.Errorf("failed to upsert intervention %s: %w", iv.UID, err)
		}
	}
	return nil
}

func putImports(ctx context.Context, tx *sql.Tx, items []models.ImportBatch) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO imports (import_id, date_detected, tech_detected, filename, pdf_total_cents, calc_total_cents, parts_detected, new_interventions, dupes, parse_errors, imported_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare import upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range items {
		parseErrors, err := marshalOr(b.ParseErrors, "[]")
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, b.ImportID, b.DateDetected, b.TechDetected, b.Filename,
			b.DeclaredTotalCents, b.ComputedTotalCents, b.PartsDetected, b.NewInterventions, b.Duplicates,
			parseErrors, formatTime(b.ImportedAt)); err != nil {
			return fmt.Errorf("failed to upsert import %s: %w", b.ImportID, err)
		}
	}
	return nil
}

// marshalOr encodes v as JSON, using empty for nil collections.
func marshalOr(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
