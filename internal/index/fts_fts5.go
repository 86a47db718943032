//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			path UNINDEXED,
			title,
			aliases,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, n NoteRow, body string) error {
	if err := ftsDelete(tx, n.Path); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT INTO notes_fts (path, title, aliases, body, tags) VALUES (?, ?, ?, ?, ?)`,
		n.Path, n.Title, strings.Join(n.Aliases, " "), body, strings.Join(n.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchQuery turns free text into an FTS5 query: every term is quoted so
// user input never hits FTS syntax, and the last term matches as a prefix.
func matchQuery(query string) string {
	terms := strings.Fields(strings.TrimPrefix(strings.TrimSpace(query), "#"))
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	if len(terms) > 0 {
		terms[len(terms)-1] += "*"
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns matching results with
// snippets. Title and alias hits weigh more than body hits.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	match := matchQuery(query)
	if match == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       title,
		       snippet(notes_fts, 3, '<mark>', '</mark>', '...', 24)
		FROM notes_fts
		WHERE notes_fts MATCH ?
		ORDER BY bm25(notes_fts, 0.0, 10.0, 8.0, 1.0, 4.0), path
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
