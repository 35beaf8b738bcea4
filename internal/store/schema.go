package store

// SchemaVersion is recorded in backups and in the meta table.
const SchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS imports (
	import_id        TEXT PRIMARY KEY,
	date_detected    TEXT NOT NULL DEFAULT '',
	tech_detected    TEXT NOT NULL DEFAULT '',
	filename         TEXT NOT NULL DEFAULT '',
	pdf_total_cents  INTEGER NOT NULL DEFAULT 0,
	calc_total_cents INTEGER NOT NULL DEFAULT 0,
	parts_detected   INTEGER NOT NULL DEFAULT 0,
	new_interventions INTEGER NOT NULL DEFAULT 0,
	dupes            INTEGER NOT NULL DEFAULT 0,
	parse_errors     TEXT NOT NULL DEFAULT '[]',
	imported_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_date ON imports(date_detected);
CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);

CREATE TABLE IF NOT EXISTS interventions (
	uid         TEXT PRIMARY KEY,
	date        TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	client_id   TEXT NOT NULL DEFAULT '',
	total_cents INTEGER NOT NULL DEFAULT 0,
	breakdown   TEXT NOT NULL DEFAULT '{}',
	techs       TEXT NOT NULL DEFAULT '[]',
	obs         TEXT NOT NULL DEFAULT '',
	sources     TEXT NOT NULL DEFAULT '[]',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interventions_date ON interventions(date);
CREATE INDEX IF NOT EXISTS idx_interventions_client ON interventions(client_id);
CREATE INDEX IF NOT EXISTS idx_interventions_type ON interventions(type);
CREATE INDEX IF NOT EXISTS idx_interventions_date_client ON interventions(date, client_id);

CREATE TABLE IF NOT EXISTS meta (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL
);
`

// GetSchemaSQL returns the authoritative schema.
func GetSchemaSQL() string {
	return schemaSQL
}
