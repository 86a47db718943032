package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/bedrock/internal/apperr"
	"github.com/starford/bedrock/internal/metadata"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Aliases   []string  `json:"aliases,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkRow is one outgoing link of a note. Target is a vault path when
// Resolved, otherwise the raw link text.
type LinkRow struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Resolved bool   `json:"resolved"`
	Count    int    `json:"count"`
}

// TagCount is a tag together with the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertNote inserts or replaces a note, its FTS entry, and links within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, links []LinkRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(orEmpty(n.Tags))
	aliasesJSON, _ := json.Marshal(orEmpty(n.Aliases))

	// Upsert notes table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, aliases, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			aliases    = excluded.aliases,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), string(aliasesJSON), body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n, body); err != nil {
		return err
	}
	if err := replaceLinks(tx, n.Path, links); err != nil {
		return err
	}
	return tx.Commit()
}

// SetLinks replaces the outgoing links of source without touching the note row.
// Resolution of a note's links changes when other notes appear or disappear.
func (db *DB) SetLinks(source string, links []LinkRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := replaceLinks(tx, source, links); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceLinks(tx *sql.Tx, source string, links []LinkRow) error {
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, source); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO links (source, target, resolved, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for _, l := range links {
		if _, err := stmt.Exec(source, l.Target, boolInt(l.Resolved), l.Count); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	return nil
}

// DeleteNote removes a note, its FTS entry, and outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetNote returns the stored row for path or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	row := db.conn.QueryRow(`SELECT path, title, checksum, tags, aliases, updated_at FROM notes WHERE path = ?`, path)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return n, nil
}

// ListNotes returns one page of notes and the total count matching tag.
// sort is "path" (default), "title" or "updated" (newest first).
func (db *DB) ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	var args []any
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	order := "path"
	switch sort {
	case "title":
		order = "title, path"
	case "updated":
		order = "updated_at DESC, path"
	}
	rows, err := db.conn.Query(`SELECT path, title, checksum, tags, aliases, updated_at FROM notes `+
		where+` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	out := []NoteRow{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*NoteRow, error) {
	var n NoteRow
	var tags, aliases string
	if err := s.Scan(&n.Path, &n.Title, &n.Checksum, &tags, &aliases, &n.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tags), &n.Tags)
	_ = json.Unmarshal([]byte(aliases), &n.Aliases)
	return &n, nil
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllLinks returns every stored link grouped by source, in the order
// LinksFor produces them.
func (db *DB) AllLinks() (map[string][]LinkRow, error) {
	rows, err := db.conn.Query(`SELECT source, target, resolved, count FROM links ORDER BY source, resolved DESC, target`)
	if err != nil {
		return nil, fmt.Errorf("index: all links: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]LinkRow)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out[l.Source] = append(out[l.Source], l)
	}
	return out, rows.Err()
}

func scanLink(s scanner) (LinkRow, error) {
	var l LinkRow
	var resolved int
	if err := s.Scan(&l.Source, &l.Target, &resolved, &l.Count); err != nil {
		return LinkRow{}, err
	}
	l.Resolved = resolved != 0
	return l, nil
}

// Backlinks returns all note paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE target = ? AND resolved = 1 ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Unresolved returns every link whose target matched no note.
func (db *DB) Unresolved() ([]LinkRow, error) {
	rows, err := db.conn.Query(`SELECT source, target, resolved, count FROM links WHERE resolved = 0 ORDER BY source, target`)
	if err != nil {
		return nil, fmt.Errorf("index: unresolved: %w", err)
	}
	defer rows.Close()
	out := []LinkRow{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Tags returns every tag with its note count, sorted by tag.
func (db *DB) Tags() ([]TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT json_each.value, count(*)
		FROM notes, json_each(notes.tags)
		GROUP BY json_each.value
		ORDER BY json_each.value
	`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()
	out := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// Graph returns the resolved link graph as stored.
func (db *DB) Graph() (metadata.Graph, error) {
	g := metadata.Graph{Nodes: []metadata.Node{}, Edges: []metadata.Edge{}}
	rows, err := db.conn.Query(`SELECT path, title FROM notes ORDER BY path`)
	if err != nil {
		return g, fmt.Errorf("index: graph nodes: %w", err)
	}
	for rows.Next() {
		var n metadata.Node
		if err := rows.Scan(&n.Path, &n.Title); err != nil {
			rows.Close()
			return g, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return g, err
	}

	rows, err = db.conn.Query(`SELECT source, target, count FROM links WHERE resolved = 1 ORDER BY source, target`)
	if err != nil {
		return g, fmt.Errorf("index: graph edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e metadata.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Count); err != nil {
			return g, err
		}
		g.Edges = append(g.Edges, e)
	}
	return g, rows.Err()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
