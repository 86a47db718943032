package preview

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return filepath.ToSlash(abs)
}

func TestLoad_StoresExistingCandidates(t *testing.T) {
	root := t.TempDir()
	vault := filepath.ToSlash(root)
	abs := writeFile(t, root, "notes/img.png", []byte("PNG"))

	cache := NewCache()
	l := NewLoader(cache, 2, 1<<20, testLogger(), nil)
	defer l.Close()

	n, err := l.Load(context.Background(), vault, "notes/a.md", "![[img.png]] ![x](missing.gif)")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 1 {
		t.Errorf("stored = %d, want 1", n)
	}
	uri, ok := cache.Lookup(abs)
	if !ok {
		t.Fatalf("cache miss for %s", abs)
	}
	if want := "data:image/png;base64,UE5H"; uri != want {
		t.Errorf("uri = %q, want %q", uri, want)
	}

	n, _ = l.Load(context.Background(), vault, "notes/a.md", "![[img.png]]")
	if n != 0 {
		t.Errorf("second load stored %d, want 0 for cached image", n)
	}
}

func TestLoad_SkipsOversized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.png", []byte(strings.Repeat("x", 64)))

	cache := NewCache()
	l := NewLoader(cache, 1, 16, testLogger(), nil)
	defer l.Close()

	n, err := l.Load(context.Background(), filepath.ToSlash(root), "a.md", "![[big.png]]")
	if err != nil || n != 0 || cache.Len() != 0 {
		t.Errorf("Load = %d, %v; cache len %d; want nothing stored", n, err, cache.Len())
	}
}

func TestLoad_IgnoresEscapingTargets(t *testing.T) {
	root := t.TempDir()
	vault := filepath.Join(root, "vault")
	writeFile(t, root, "outside.png", []byte("x"))
	_ = os.MkdirAll(vault, 0o755)

	cache := NewCache()
	l := NewLoader(cache, 1, 0, testLogger(), nil)
	defer l.Close()

	n, _ := l.Load(context.Background(), filepath.ToSlash(vault), "a.md", "![x](../outside.png)")
	if n != 0 {
		t.Errorf("stored = %d, want 0 for a target outside the vault", n)
	}
}

func TestPrefetch_CallsReady(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pic.jpg", []byte("JPG"))

	ready := make(chan string, 1)
	l := NewLoader(NewCache(), 2, 0, testLogger(), func(p string) { ready <- p })
	defer l.Close()

	l.Prefetch(filepath.ToSlash(root), "a.md", "![[pic.jpg]]")

	select {
	case p := <-ready:
		if p != "a.md" {
			t.Errorf("ready path = %q, want a.md", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ready callback not called")
	}
}

func TestPrefetch_NothingPendingIsNoop(t *testing.T) {
	called := false
	l := NewLoader(NewCache(), 1, 0, testLogger(), func(string) { called = true })
	l.Prefetch(t.TempDir(), "a.md", "no images here")
	l.Close()
	if called {
		t.Error("ready called without images")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	c.Store("/v/a.png", "data:x")
	c.Invalidate("/v/a.png")
	if _, ok := c.Lookup("/v/a.png"); ok {
		t.Error("entry survived Invalidate")
	}
}
