package store_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/store"
)

// setupTestStore opens an in-memory database with the authoritative schema.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	s, err := store.New(db, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

var testTime = time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)

func newIntervention(uid, date string, typ models.WorkType, client string, total int64) models.Intervention {
	return models.Intervention{
		UID:         uid,
		Date:        date,
		Type:        typ,
		ClientID:    client,
		TotalCents:  total,
		Breakdown:   models.Breakdown{models.CatInstallation: total},
		Technicians: []string{"Ana", "Luis"},
		Observation: "obs " + uid,
		Sources: []models.Source{
			{ImportID: "b-" + uid, Filename: uid + ".pdf", ReportingTechnician: "Ana", ImportedAt: testTime},
		},
		CreatedAt: testTime,
	}
}

func newBatch(id, date string, importedAt time.Time) models.ImportBatch {
	return models.ImportBatch{
		ImportID:           id,
		DateDetected:       date,
		TechDetected:       "Ana",
		Filename:           id + ".pdf",
		DeclaredTotalCents: 12500,
		ComputedTotalCents: 12500,
		PartsDetected:      1,
		NewInterventions:   1,
		ParseErrors:        []string{},
		ImportedAt:         importedAt,
	}
}
