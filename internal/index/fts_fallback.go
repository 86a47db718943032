//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Without FTS5 the notes table is searched directly: title hits rank first,
// then exact tag hits, then body hits.

func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _ NoteRow, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search performs a case-insensitive substring search over titles, aliases,
// bodies and tags.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	tag := strings.ToLower(strings.TrimPrefix(query, "#"))
	rows, err := db.conn.Query(`
		SELECT path, title, body,
		       CASE
		           WHEN title LIKE ?1 ESCAPE '\' OR aliases LIKE ?1 ESCAPE '\' THEN 0
		           WHEN EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?2) THEN 1
		           ELSE 2
		       END AS rank
		FROM notes
		WHERE title LIKE ?1 ESCAPE '\'
		   OR aliases LIKE ?1 ESCAPE '\'
		   OR body LIKE ?1 ESCAPE '\'
		   OR EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?2)
		ORDER BY rank, path
		LIMIT ?3
	`, like, tag, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var (
			r    SearchResult
			body string
			rank int
		)
		if err := rows.Scan(&r.Path, &r.Title, &body, &rank); err != nil {
			return nil, err
		}
		r.Snippet = snippetAround(body, query, 64)
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// snippetAround returns up to radius bytes of body on each side of the first
// case-insensitive match of query, or the start of body when there is none.
func snippetAround(body, query string, radius int) string {
	at := 0
	lower := strings.ToLower(body)
	if i := strings.Index(lower, strings.ToLower(query)); i >= 0 && len(lower) == len(body) {
		at = i
	}
	start, end := max(0, at-radius), min(len(body), at+len(query)+radius)
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}

	s := strings.Join(strings.Fields(body[start:end]), " ")
	if start > 0 {
		s = "..." + s
	}
	if end < len(body) {
		s += "..."
	}
	return s
}
