// Package testutil provides shared test helpers for vaults, index databases
// and loggers.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/bedrock/internal/index"
	"github.com/starford/bedrock/internal/storage"
)

// TestDB opens an index database in a temporary directory and closes it when
// the test ends.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "bedrock-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Seed writes files (vault-relative path → content) through store.
func Seed(t *testing.T, store storage.Provider, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
}

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
