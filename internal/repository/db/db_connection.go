package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens the ledger database at path, creating the file and schema on
// first use.
func InitDB(path string) (*sql.DB, error) {
	conn, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// One connection: every request transaction is serialized by the pool.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := prepare(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite at %q: %w", path, err)
	}
	return conn, nil
}

// prepare checks the file is reachable, sets pragmas and applies the schema.
func prepare(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return ensureSchema(conn)
}

const sqliteDriverName = "sqlite"

// Timestamps are stored as UTC unix nanoseconds so ORDER BY is exact.
const schemaAppliances = `
CREATE TABLE IF NOT EXISTS appliances (
    id INTEGER PRIMARY KEY,
    name TEXT UNIQUE NOT NULL,
    threshold REAL NOT NULL CHECK (threshold > 0),
    cycles INTEGER NOT NULL CHECK (cycles >= 1),
    role TEXT NOT NULL CHECK (role IN ('source', 'sink')),
    source_id INTEGER REFERENCES appliances(id),
    last_reading REAL NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL DEFAULT 0
);
`

const schemaPeople = `
CREATE TABLE IF NOT EXISTS people (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    contact TEXT NOT NULL DEFAULT ''
);
`

const schemaLoads = `
CREATE TABLE IF NOT EXISTS loads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    appliance_id INTEGER NOT NULL REFERENCES appliances(id),
    owner_id INTEGER REFERENCES people(id),
    cycle_number INTEGER NOT NULL DEFAULT 1 CHECK (cycle_number >= 0),
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    last_change_time INTEGER NOT NULL,
    collected BOOLEAN NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    CHECK (collected = 0 OR end_time IS NOT NULL)
);
`

const schemaLoadIndexes = `
CREATE INDEX IF NOT EXISTS idx_loads_appliance_start ON loads(appliance_id, start_time);
CREATE UNIQUE INDEX IF NOT EXISTS idx_loads_one_open ON loads(appliance_id) WHERE end_time IS NULL;
`

const schemaLoadEvents = `
CREATE TABLE IF NOT EXISTS load_events (
    id TEXT PRIMARY KEY,
    occurred_at INTEGER NOT NULL,
    type TEXT NOT NULL,
    load_id INTEGER NOT NULL,
    appliance_id INTEGER NOT NULL,
    person TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    meta TEXT
);
CREATE INDEX IF NOT EXISTS idx_load_events_occurred ON load_events(occurred_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// no-op after Commit
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaAppliances,
		schemaPeople,
		schemaLoads,
		schemaLoadIndexes,
		schemaLoadEvents,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
