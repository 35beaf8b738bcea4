package store_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/store"
)

func TestStore_CommitAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	iv := newIntervention("aaaa0001", "2024-03-10", models.WorkInstallation, "4021", 12500)
	batch := newBatch("b1", "2024-03-10", testTime)

	if err := s.Commit(ctx, []models.Intervention{iv}, []models.ImportBatch{batch}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := s.GetByFingerprint(ctx, "aaaa0001")
	if err != nil {
		t.Fatalf("GetByFingerprint failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected intervention, got nil")
	}
	if got.ClientID != "4021" || got.TotalCents != 12500 || got.Type != models.WorkInstallation {
		t.Errorf("fields: got %+v", got)
	}
	if !reflect.DeepEqual(got.Breakdown, iv.Breakdown) {
		t.Errorf("breakdown: got %v, want %v", got.Breakdown, iv.Breakdown)
	}
	if !reflect.DeepEqual(got.Technicians, iv.Technicians) {
		t.Errorf("technicians: got %v", got.Technicians)
	}
	if len(got.Sources) != 1 || got.Sources[0].ImportID != "b-aaaa0001" || !got.Sources[0].ImportedAt.Equal(testTime) {
		t.Errorf("sources: got %+v", got.Sources)
	}
	if !got.CreatedAt.Equal(testTime) {
		t.Errorf("created at: got %v", got.CreatedAt)
	}

	imports, err := s.RecentImports(ctx, 10)
	if err != nil {
		t.Fatalf("RecentImports failed: %v", err)
	}
	if len(imports) != 1 || imports[0].ImportID != "b1" {
		t.Errorf("imports: got %+v", imports)
	}
}

func TestStore_GetByFingerprintAbsent(t *testing.T) {
	s := setupTestStore(t)

	got, err := s.GetByFingerprint(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}

	_, err = s.Get(context.Background(), "deadbeef")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetByFingerprintClosedDB(t *testing.T) {
	s := setupTestStore(t)
	s.Close()

	got, err := s.GetByFingerprint(context.Background(), "deadbeef")
	if err == nil {
		t.Fatal("expected error from closed database, got nil")
	}
	if got != nil {
		t.Errorf("expected nil intervention, got %+v", got)
	}
}

func TestStore_UpsertOverwrites(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	iv := newIntervention("aaaa0001", "2024-03-10", models.WorkInstallation, "4021", 12500)
	if err := s.PutInterventions(ctx, []models.Intervention{iv}); err != nil {
		t.Fatalf("PutInterventions failed: %v", err)
	}

	iv.Sources = append(iv.Sources, models.Source{ImportID: "b2", ImportedAt: testTime})
	if err := s.PutInterventions(ctx, []models.Intervention{iv}); err != nil {
		t.Fatalf("second PutInterventions failed: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("interventions: got %d, want 1", len(all))
	}
	if len(all[0].Sources) != 2 {
		t.Errorf("sources: got %d, want 2", len(all[0].Sources))
	}
}

func TestStore_NilCollectionsRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	iv := models.Intervention{UID: "aaaa0002", CreatedAt: testTime}
	if err := s.PutInterventions(ctx, []models.Intervention{iv}); err != nil {
		t.Fatalf("PutInterventions failed: %v", err)
	}
	got, err := s.GetByFingerprint(ctx, "aaaa0002")
	if err != nil {
		t.Fatalf("GetByFingerprint failed: %v", err)
	}
	if got.Breakdown == nil || got.Technicians == nil || got.Sources == nil {
		t.Errorf("nil collections after round trip: %+v", got)
	}
}

func seedSearchData(t *testing.T, s *store.Store) {
	t.Helper()
	items := []models.Intervention{
		newIntervention("00000001", "2024-03-10", models.WorkInstallation, "4021", 12500),
		newIntervention("00000002", "2024-03-10", models.WorkRepair, "77", 4000),
		newIntervention("00000003", "2024-03-11", models.WorkRepair, "4021", 3000),
		newIntervention("00000004", "2024-03-12", models.WorkMaintenance, "14021", 2000),
	}
	if err := s.PutInterventions(context.Background(), items); err != nil {
		t.Fatalf("failed to seed interventions: %v", err)
	}
}

func uids(items []models.Intervention) []string {
	out := []string{}
	for _, iv := range items {
		out = append(out, iv.UID)
	}
	return out
}

func TestStore_Search(t *testing.T) {
	s := setupTestStore(t)
	seedSearchData(t, s)

	tests := []struct {
		name     string
		filter   store.Filter
		expected []string
	}{
		{"all newest first", store.Filter{}, []string{"00000004", "00000003", "00000001", "00000002"}},
		{"client substring", store.Filter{Client: "4021"}, []string{"00000004", "00000003", "00000001"}},
		{"type", store.Filter{Type: models.WorkRepair}, []string{"00000003", "00000002"}},
		{"from", store.Filter{From: "2024-03-11"}, []string{"00000004", "00000003"}},
		{"to", store.Filter{To: "2024-03-10"}, []string{"00000001", "00000002"}},
		{"range and type", store.Filter{From: "2024-03-10", To: "2024-03-11", Type: models.WorkRepair}, []string{"00000003", "00000002"}},
		{"limit", store.Filter{Limit: 1}, []string{"00000004"}},
		{"no match", store.Filter{Client: "999"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if !reflect.DeepEqual(uids(got), tt.expected) {
				t.Errorf("got %v, want %v", uids(got), tt.expected)
			}
		})
	}
}

func TestStore_ListByClient(t *testing.T) {
	s := setupTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	got, err := s.ListByClient(ctx, "4021", store.Filter{})
	if err != nil {
		t.Fatalf("ListByClient failed: %v", err)
	}
	if !reflect.DeepEqual(uids(got), []string{"00000003", "00000001"}) {
		t.Errorf("got %v, want exact client matches newest first", uids(got))
	}

	got, err = s.ListByClient(ctx, "4021", store.Filter{Type: models.WorkInstallation})
	if err != nil {
		t.Fatalf("ListByClient failed: %v", err)
	}
	if !reflect.DeepEqual(uids(got), []string{"00000001"}) {
		t.Errorf("type filter: got %v", uids(got))
	}
}

func TestStore_ListByDateAndDistinctDates(t *testing.T) {
	s := setupTestStore(t)
	seedSearchData(t, s)
	ctx := context.Background()

	day, err := s.ListByDate(ctx, "2024-03-10")
	if err != nil {
		t.Fatalf("ListByDate failed: %v", err)
	}
	if len(day) != 2 {
		t.Errorf("day items: got %d, want 2", len(day))
	}

	dates, err := s.DistinctDates(ctx)
	if err != nil {
		t.Fatalf("DistinctDates failed: %v", err)
	}
	if !reflect.DeepEqual(dates, []string{"2024-03-10", "2024-03-11", "2024-03-12"}) {
		t.Errorf("dates: got %v", dates)
	}
}

func TestStore_Imports(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	batches := []models.ImportBatch{
		newBatch("b1", "2024-03-10", testTime),
		newBatch("b2", "2024-03-11", testTime.Add(time.Hour)),
		newBatch("b3", "2024-03-10", testTime.Add(2*time.Hour)),
	}
	batches[2].ParseErrors = []string{"No se detectó el Técnico en cabecera."}
	if err := s.PutImports(ctx, batches); err != nil {
		t.Fatalf("PutImports failed: %v", err)
	}

	recent, err := s.RecentImports(ctx, 2)
	if err != nil {
		t.Fatalf("RecentImports failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ImportID != "b3" || recent[1].ImportID != "b2" {
		t.Errorf("recent: got %+v", recent)
	}
	if !reflect.DeepEqual(recent[0].ParseErrors, batches[2].ParseErrors) {
		t.Errorf("parse errors: got %v", recent[0].ParseErrors)
	}
	if recent[0].Status() != models.StatusError {
		t.Errorf("status: got %q, want ERROR", recent[0].Status())
	}

	byDate, err := s.ImportsByDate(ctx, "2024-03-10")
	if err != nil {
		t.Fatalf("ImportsByDate failed: %v", err)
	}
	if len(byDate) != 2 || byDate[0].ImportID != "b1" {
		t.Errorf("by date: got %+v", byDate)
	}
}

func TestStore_Meta(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var date string
	ok, err := s.MetaGet(ctx, store.MetaLastSelectedDate, &date)
	if err != nil || ok {
		t.Fatalf("MetaGet on empty store: ok=%v err=%v", ok, err)
	}

	if err := s.MetaSet(ctx, store.MetaLastSelectedDate, "2024-03-10"); err != nil {
		t.Fatalf("MetaSet failed: %v", err)
	}
	if err := s.MetaSet(ctx, store.MetaLastSelectedDate, "2024-03-11"); err != nil {
		t.Fatalf("MetaSet failed: %v", err)
	}

	ok, err = s.MetaGet(ctx, store.MetaLastSelectedDate, &date)
	if err != nil || !ok {
		t.Fatalf("MetaGet: ok=%v err=%v", ok, err)
	}
	if date != "2024-03-11" {
		t.Errorf("date: got %q, want %q", date, "2024-03-11")
	}
}

func TestStore_DumpAndReplace(t *testing.T) {
	src := setupTestStore(t)
	ctx := context.Background()
	seedSearchData(t, src)
	if err := src.PutImports(ctx, []models.ImportBatch{newBatch("b1", "2024-03-10", testTime)}); err != nil {
		t.Fatalf("PutImports failed: %v", err)
	}
	if err := src.MetaSet(ctx, store.MetaLastSelectedDate, "2024-03-12"); err != nil {
		t.Fatalf("MetaSet failed: %v", err)
	}

	dump, err := src.Dump(ctx, testTime)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if dump.SchemaVersion != store.SchemaVersion {
		t.Errorf("schema version: got %d", dump.SchemaVersion)
	}
	if len(dump.Interventions) != 4 || len(dump.Imports) != 1 || len(dump.Meta) != 1 {
		t.Fatalf("dump sizes: %d interventions, %d imports, %d meta",
			len(dump.Interventions), len(dump.Imports), len(dump.Meta))
	}

	dst := setupTestStore(t)
	stale := newIntervention("ffffffff", "2020-01-01", models.WorkRepair, "1", 100)
	if err := dst.PutInterventions(ctx, []models.Intervention{stale}); err != nil {
		t.Fatalf("PutInterventions failed: %v", err)
	}

	if err := dst.Replace(ctx, dump); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	all, err := dst.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if !reflect.DeepEqual(uids(all), []string{"00000001", "00000002", "00000003", "00000004"}) {
		t.Errorf("restored interventions: got %v", uids(all))
	}

	var date string
	if ok, err := dst.MetaGet(ctx, store.MetaLastSelectedDate, &date); err != nil || !ok || date != "2024-03-12" {
		t.Errorf("restored meta: ok=%v err=%v date=%q", ok, err, date)
	}
}

func TestStore_ReplaceRejectsNewerSchema(t *testing.T) {
	s := setupTestStore(t)
	seedSearchData(t, s)

	err := s.Replace(context.Background(), &store.Dump{SchemaVersion: store.SchemaVersion + 1})
	if err == nil {
		t.Fatal("expected error for newer schema, got nil")
	}

	all, _ := s.All(context.Background())
	if len(all) != 4 {
		t.Errorf("store modified by rejected restore: %d interventions", len(all))
	}
}
