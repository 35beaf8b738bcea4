package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// MetaEntry is one key/value pair of the meta table.
type MetaEntry struct {
	K string          `json:"k"`
	V json.RawMessage `json:"v"`
}

// Dump is a full copy of the store, used for JSON backups.
type Dump struct {
	SchemaVersion int                   `json:"schema_version"`
	ExportedAt    time.Time             `json:"exported_at"`
	Imports       []models.ImportBatch  `json:"imports"`
	Interventions []models.Intervention `json:"interventions"`
	Meta          []MetaEntry           `json:"meta"`
}

// Dump reads every record.
func (s *Store) Dump(ctx context.Context, exportedAt time.Time) (*Dump, error) {
	imports, err := s.queryImports(ctx, "SELECT "+importColumns+" FROM imports ORDER BY imported_at, import_id")
	if err != nil {
		return nil, err
	}
	interventions, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT k, v FROM meta ORDER BY k")
	if err != nil {
		return nil, fmt.Errorf("failed to dump meta: %w", err)
	}
	defer rows.Close()

	meta := []MetaEntry{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan meta: %w", err)
		}
		meta = append(meta, MetaEntry{K: k, V: json.RawMessage(v)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to dump meta: %w", err)
	}

	return &Dump{
		SchemaVersion: SchemaVersion,
		ExportedAt:    exportedAt,
		Imports:       imports,
		Interventions: interventions,
		Meta:          meta,
	}, nil
}

// Replace clears the store and loads d, all in one transaction.
func (s *Store) Replace(ctx context.Context, d *Dump) error {
	if d.SchemaVersion > SchemaVersion {
		return fmt.Errorf("backup schema version %d is newer than supported version %d", d.SchemaVersion, SchemaVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"imports", "interventions", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := putImports(ctx, tx, d.Imports); err != nil {
		return err
	}
	if err := putInterventions(ctx, tx, d.Interventions); err != nil {
		return err
	}
	for _, m := range d.Meta {
		v := string(m.V)
		if v == "" {
			v = "null"
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO meta (k, v) VALUES (?, ?)", m.K, v); err != nil {
			return fmt.Errorf("failed to restore meta %s: %w", m.K, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"imports":       len(d.Imports),
		"interventions": len(d.Interventions),
		"meta":          len(d.Meta),
	}).Info("store replaced from backup")
	return nil
}
