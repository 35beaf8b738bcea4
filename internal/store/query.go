package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// Filter narrows intervention listings. Empty fields match everything;
// From and To are inclusive YYYY-MM-DD bounds.
type Filter struct {
	Client string // substring of the client id
	Type   models.WorkType
	From   string
	To     string
	Limit  int
}

// ListByDate returns the interventions of one day.
func (s *Store) ListByDate(ctx context.Context, date string) ([]models.Intervention, error) {
	return s.queryInterventions(ctx,
		"SELECT "+interventionColumns+" FROM interventions WHERE date = ? ORDER BY client_id, uid", date)
}

// ListByClient returns the interventions of exactly clientID, newest first.
// filter.Client is ignored.
func (s *Store) ListByClient(ctx context.Context, clientID string, filter Filter) ([]models.Intervention, error) {
	query := "SELECT " + interventionColumns + " FROM interventions WHERE client_id = ?"
	args := []any{clientID}
	query, args = filter.where(query, args, false)
	return s.queryInterventions(ctx, query, args...)
}

// Search scans interventions matching filter, newest first.
func (s *Store) Search(ctx context.Context, filter Filter) ([]models.Intervention, error) {
	query := "SELECT " + interventionColumns + " FROM interventions WHERE 1=1"
	query, args := filter.where(query, nil, true)
	return s.queryInterventions(ctx, query, args...)
}

// All returns every intervention ordered by date then uid.
func (s *Store) All(ctx context.Context) ([]models.Intervention, error) {
	return s.queryInterventions(ctx, "SELECT "+interventionColumns+" FROM interventions ORDER BY date, uid")
}

func (f Filter) where(query string, args []any, withClient bool) (string, []any) {
	if withClient && f.Client != "" {
		query += " AND instr(client_id, ?) > 0"
		args = append(args, f.Client)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.From != "" {
		query += " AND date >= ?"
		args = append(args, f.From)
	}
	if f.To != "" {
		query += " AND date <= ?"
		args = append(args, f.To)
	}
	query += " ORDER BY date DESC, uid"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return query, args
}

func (s *Store) queryInterventions(ctx context.Context, query string, args ...any) ([]models.Intervention, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interventions: %w", err)
	}
	defer rows.Close()

	out := []models.Intervention{}
	for rows.Next() {
		iv, err := scanIntervention(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intervention: %w", err)
		}
		out = append(out, *iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list interventions: %w", err)
	}
	return out, nil
}

// DistinctDates returns every date with at least one intervention, ascending.
func (s *Store) DistinctDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT date FROM interventions ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("failed to list dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

const importColumns = "import_id, date_detected, tech_detected, filename, pdf_total_cents, calc_total_cents, parts_detected, new_interventions, dupes, parse_errors, imported_at"

// RecentImports returns up to limit batches, most recently imported first.
func (s *Store) RecentImports(ctx context.Context, limit int) ([]models.ImportBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryImports(ctx, "SELECT "+importColumns+" FROM imports ORDER BY imported_at DESC, filename LIMIT ?", limit)
}

// ImportsByDate returns the batches whose report date is date.
func (s *Store) ImportsByDate(ctx context.Context, date string) ([]models.ImportBatch, error) {
	return s.queryImports(ctx, "SELECT "+importColumns+" FROM imports WHERE date_detected = ? ORDER BY imported_at, filename", date)
}

func (s *Store) queryImports(ctx context.Context, query string, args ...any) ([]models.ImportBatch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	out := []models.ImportBatch{}
	for rows.Next() {
		var (
			b           models.ImportBatch
			parseErrors string
			importedAt  string
		)
		if err := rows.Scan(&b.ImportID, &b.DateDetected, &b.TechDetected, &b.Filename,
			&b.DeclaredTotalCents, &b.ComputedTotalCents, &b.PartsDetected, &b.NewInterventions,
			&b.Duplicates, &parseErrors, &importedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		if err := json.Unmarshal([]byte(parseErrors), &b.ParseErrors); err != nil {
			return nil, fmt.Errorf("import %s: bad parse_errors: %w", b.ImportID, err)
		}
		if b.ParseErrors == nil {
			b.ParseErrors = []string{}
		}
		if b.ImportedAt, err = parseTime(importedAt); err != nil {
			return nil, fmt.Errorf("import %s: bad imported_at: %w", b.ImportID, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return out, nil
}

// MetaSet stores v as JSON under k.
func (s *Store) MetaSet(ctx context.Context, k string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode meta %s: %w", k, err)
	}
	if _, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO meta (k, v) VALUES (?, ?)", k, string(data)); err != nil {
		return fmt.Errorf("failed to set meta %s: %w", k, err)
	}
	return nil
}

// MetaGet decodes the value under k into dst and reports whether it existed.
func (s *Store) MetaGet(ctx context.Context, k string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT v FROM meta WHERE k = ?", k).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get meta %s: %w", k, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode meta %s: %w", k, err)
	}
	return true, nil
}
