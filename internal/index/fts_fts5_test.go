//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "fts.md",
		Title:     "FTS Note",
		Checksum:  "f1",
		Tags:      []string{"search"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "Bedrock provides powerful full-text search capabilities.", nil); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.md" {
		t.Errorf("path = %q", results[0].Path)
	}
	if !strings.Contains(results[0].Snippet, "<mark>powerful</mark>") {
		t.Errorf("snippet = %q, want highlighted match", results[0].Snippet)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "gone.md", Checksum: "g", UpdatedAt: time.Now()}, "vanishing content", nil)
	_ = db.DeleteNote("gone.md")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.md" {
			t.Error("deleted note still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "evo.md", Title: "Old", Checksum: "1", UpdatedAt: now}, "original text", nil)
	_ = db.UpsertNote(NoteRow{Path: "evo.md", Title: "New", Checksum: "2", UpdatedAt: now}, "replacement text", nil)

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

func TestFTS5_MatchQueryQuotesTerms(t *testing.T) {
	if got, want := matchQuery(`#go "db" sql`), `"go" """db""" "sql"*`; got != want {
		t.Errorf("matchQuery = %q, want %q", got, want)
	}
	if got := matchQuery("   "); got != "" {
		t.Errorf("matchQuery(blank) = %q, want empty", got)
	}
}

func TestFTS5_TitleOutranksBody(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Misc", Checksum: "1", UpdatedAt: now}, "mentions kestrel once", nil)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "Kestrel", Checksum: "2", UpdatedAt: now}, "bird notes", nil)

	results, err := db.Search("kestrel", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].Path != "b.md" {
		t.Errorf("results = %+v, want title hit first", results)
	}
}
