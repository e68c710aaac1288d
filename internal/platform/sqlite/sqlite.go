// Package sqlite provides SQLite-backed implementations of the store
// interfaces using the pure-Go modernc.org/sqlite driver. It serves the
// embedded single-file deployment shape and is also the backend the unit
// tests run against (":memory:" databases need no external service).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

// Open opens (creating if necessary) a SQLite database at path and
// configures it for this application: foreign keys on, WAL journaling,
// and a busy timeout so the single shared connection tolerates overlap
// with external readers. Use ":memory:" for an ephemeral database.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = "configurations.db"
	}
	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer connection keeps "one session per process" semantics
	// and avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	return db, nil
}

// EnsureSchema creates all configuration tables and indexes if they do not
// exist. Safe to run at every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("initialize sqlite schema: %w", err)
	}
	return nil
}

// schemaSQL mirrors the goose migrations in migrations/ in SQLite dialect.
// The expression index on config_values enforces the one-row-per-level
// invariant with NULL clinic/location folded to empty strings.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS programs (
	program_id   TEXT PRIMARY KEY,
	client_id    TEXT,
	name         TEXT NOT NULL,
	prefix       TEXT NOT NULL,
	program_type TEXT NOT NULL DEFAULT 'clinic_based',
	description  TEXT,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS program_relationships (
	relationship_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_program_id   TEXT NOT NULL REFERENCES programs(program_id),
	attached_program_id TEXT NOT NULL REFERENCES programs(program_id),
	relationship_type   TEXT NOT NULL DEFAULT 'uses',
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clinics (
	clinic_id   TEXT PRIMARY KEY,
	program_id  TEXT NOT NULL REFERENCES programs(program_id),
	name        TEXT NOT NULL,
	code        TEXT,
	description TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	location_id TEXT PRIMARY KEY,
	clinic_id   TEXT NOT NULL REFERENCES clinics(clinic_id),
	name        TEXT NOT NULL,
	code        TEXT,
	address     TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS config_definitions (
	config_key         TEXT PRIMARY KEY,
	category           TEXT NOT NULL,
	display_name       TEXT NOT NULL,
	description        TEXT,
	data_type          TEXT NOT NULL,
	allowed_values     TEXT,
	default_value      TEXT,
	applies_to         TEXT NOT NULL DEFAULT 'all',
	is_required        INTEGER NOT NULL DEFAULT 0,
	is_clinic_editable INTEGER NOT NULL DEFAULT 0,
	validation_regex   TEXT,
	display_order      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS config_values (
	value_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	config_key      TEXT NOT NULL,
	program_id      TEXT NOT NULL REFERENCES programs(program_id),
	clinic_id       TEXT,
	location_id     TEXT,
	value           TEXT NOT NULL,
	is_override     INTEGER NOT NULL DEFAULT 0,
	source          TEXT NOT NULL DEFAULT 'manual',
	source_document TEXT,
	rationale       TEXT,
	version         INTEGER NOT NULL DEFAULT 1,
	created_by      TEXT NOT NULL DEFAULT 'system',
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_config_values_level
	ON config_values (config_key, program_id, COALESCE(clinic_id, ''), COALESCE(location_id, ''));

CREATE INDEX IF NOT EXISTS idx_config_values_program
	ON config_values (program_id);

CREATE TABLE IF NOT EXISTS config_history (
	history_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	config_key      TEXT NOT NULL,
	program_id      TEXT NOT NULL,
	clinic_id       TEXT,
	location_id     TEXT,
	old_value       TEXT,
	new_value       TEXT NOT NULL,
	changed_by      TEXT NOT NULL DEFAULT 'system',
	change_reason   TEXT,
	source_document TEXT,
	changed_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_config_history_program
	ON config_history (program_id, changed_at);
`

// timeLayout is the canonical text form for timestamps in the SQLite
// store. RFC 3339 sorts lexicographically, which the history range query
// relies on.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullable converts an empty string to a NULL column value.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// levelOf reassembles the domain Level tagged union from the sparse
// clinic/location columns of a row.
func levelOf(programID string, clinicID, locationID sql.NullString) domain.Level {
	switch {
	case locationID.Valid:
		return domain.LocationLevel(programID, clinicID.String, locationID.String)
	case clinicID.Valid:
		return domain.ClinicLevel(programID, clinicID.String)
	default:
		return domain.ProgramLevel(programID)
	}
}
