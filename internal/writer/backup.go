package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/insightdelivered/closure-importer/internal/store"
)

// WriteBackup writes d as indented JSON.
func WriteBackup(out io.Writer, d *store.Dump) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// WriteBackupFile writes d to path.
func WriteBackupFile(path string, d *store.Dump) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file %q: %w", path, err)
	}
	defer f.Close()

	return WriteBackup(f, d)
}

// ReadBackup decodes a backup written by WriteBackup.
func ReadBackup(in io.Reader) (*store.Dump, error) {
	var d store.Dump
	if err := json.NewDecoder(in).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if d.SchemaVersion == 0 {
		return nil, fmt.Errorf("backup has no schema_version")
	}
	return &d, nil
}

// ReadBackupFile decodes the backup at path.
func ReadBackupFile(path string) (*store.Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file %q: %w", path, err)
	}
	defer f.Close()

	return ReadBackup(f)
}

// BackupFilename names a backup taken at t.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("backup_gp_%s.json", t.Format("2006-01-02"))
}

// ExportFilename names an export for a single date or a from/to range.
// Empty bounds are written as "start" and "end".
func ExportFilename(date, from, to, ext string) string {
	if date != "" {
		return fmt.Sprintf("intervenciones_%s.%s", date, ext)
	}
	if from == "" {
		from = "start"
	}
	if to == "" {
		to = "end"
	}
	return fmt.Sprintf("intervenciones_%s_%s.%s", from, to, ext)
}
