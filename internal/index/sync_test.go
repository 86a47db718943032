package index

import (
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/starford/bedrock/internal/metadata"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syncVault(t *testing.T, db *DB, texts map[string]string) {
	t.Helper()
	var paths []string
	for p := range texts {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	state := metadata.Build(texts, paths)
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		docs = append(docs, Document{Path: p, Body: texts[p]})
	}
	if err := Sync(db, docs, state, discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestSync_MirrorsState(t *testing.T) {
	db := testDB(t)
	syncVault(t, db, map[string]string{"A.md": "# Alpha\n#go [[B]] [[C]]", "B.md": "plain"})

	n, err := db.GetNote("A.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Title != "Alpha" || !slices.Equal(n.Tags, []string{"go"}) {
		t.Errorf("note = %+v", n)
	}
	if bl, _ := db.Backlinks("B.md"); !slices.Equal(bl, []string{"A.md"}) {
		t.Errorf("backlinks(B) = %v", bl)
	}
	if u, _ := db.Unresolved(); len(u) != 1 || u[0].Target != "C" {
		t.Errorf("unresolved = %+v", u)
	}
}

func TestSync_RelinksUnchangedNotes(t *testing.T) {
	db := testDB(t)
	syncVault(t, db, map[string]string{"A.md": "[[C]]"})
	before, _ := db.GetChecksum("A.md")

	// Creating C resolves A's link without changing A's text.
	syncVault(t, db, map[string]string{"A.md": "[[C]]", "C.md": ""})

	if after, _ := db.GetChecksum("A.md"); after != before {
		t.Errorf("checksum changed: %q -> %q", before, after)
	}
	if bl, _ := db.Backlinks("C.md"); !slices.Equal(bl, []string{"A.md"}) {
		t.Errorf("backlinks(C) = %v", bl)
	}
	if u, _ := db.Unresolved(); len(u) != 0 {
		t.Errorf("unresolved = %+v, want none", u)
	}
}

func TestSync_RemovesStale(t *testing.T) {
	db := testDB(t)
	syncVault(t, db, map[string]string{"A.md": "a", "B.md": "b"})
	syncVault(t, db, map[string]string{"A.md": "a"})

	paths, _ := db.AllPaths()
	if _, ok := paths["B.md"]; ok || len(paths) != 1 {
		t.Errorf("paths = %v, want only A.md", paths)
	}
}

func TestLinksFor_MatchesStoredOrder(t *testing.T) {
	db := testDB(t)
	texts := map[string]string{"A.md": "[[Z]] [[C]] [[B]] [[Y]]", "B.md": "", "C.md": ""}
	syncVault(t, db, texts)

	state := metadata.Build(texts, []string{"A.md", "B.md", "C.md"})
	stored, err := db.AllLinks()
	if err != nil {
		t.Fatalf("AllLinks: %v", err)
	}
	if got := LinksFor(state, "A.md"); !slices.Equal(stored["A.md"], got) {
		t.Errorf("stored = %+v\nLinksFor = %+v", stored["A.md"], got)
	}
}
