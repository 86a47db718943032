// Package index provides a SQLite mirror of the vault metadata graph with
// optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is stored in PRAGMA user_version. The index is a mirror that
// is rebuilt from the vault on every load, so a mismatch drops the tables
// instead of migrating them.
const schemaVersion = 2

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	aliases    TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS links (
	source   TEXT NOT NULL,
	target   TEXT NOT NULL,
	resolved INTEGER NOT NULL DEFAULT 1,
	count    INTEGER NOT NULL DEFAULT 1,
	UNIQUE(source, target, resolved)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target, resolved);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if err := resetStale(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: set schema version: %w", err)
	}
	return &DB{conn: conn}, nil
}

// resetStale drops the tables of a database written with another schema
// version. A fresh database (version 0 with no notes table) is left alone.
func resetStale(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("index: read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	var tables int
	if err := conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'notes'`).Scan(&tables); err != nil {
		return fmt.Errorf("index: inspect schema: %w", err)
	}
	if tables == 0 {
		return nil
	}
	// Dropping an FTS5 table needs the module; without it the table is inert.
	_, _ = conn.Exec("DROP TABLE IF EXISTS notes_fts")
	for _, stmt := range []string{"DROP TABLE IF EXISTS links", "DROP TABLE IF EXISTS notes"} {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("index: reset stale schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
