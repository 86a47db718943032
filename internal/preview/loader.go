package preview

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/bedrock/internal/format"
)

// ReadyFunc is called with the note path after a prefetch stored at least one
// new image.
type ReadyFunc func(notePath string)

// Loader reads image files referenced by notes into a Cache with bounded
// parallelism.
type Loader struct {
	cache    *Cache
	workers  int
	maxBytes int64
	logger   *slog.Logger
	onReady  ReadyFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewLoader creates a loader. workers bounds concurrent file reads per
// prefetch; files larger than maxBytes are never previewed.
func NewLoader(cache *Cache, workers int, maxBytes int64, logger *slog.Logger, onReady ReadyFunc) *Loader {
	if workers <= 0 {
		workers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		cache:    cache,
		workers:  workers,
		maxBytes: maxBytes,
		logger:   logger,
		onReady:  onReady,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
}

// Cache returns the cache this loader fills.
func (l *Loader) Cache() *Cache { return l.cache }

// Prefetch loads the images referenced by text in the background and calls
// the ready callback if anything new was stored.
func (l *Loader) Prefetch(vaultRoot, notePath, text string) {
	if len(l.pending(vaultRoot, notePath, text)) == 0 {
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		n, err := l.Load(l.ctx, vaultRoot, notePath, text)
		if err != nil && l.ctx.Err() == nil {
			l.logger.Warn("preview: prefetch failed", slog.String("path", notePath), slog.String("error", err.Error()))
		}
		if n > 0 && l.onReady != nil && l.ctx.Err() == nil {
			l.onReady(notePath)
		}
	}()
}

// Load synchronously reads every uncached candidate image referenced by text
// and returns how many were stored. Missing files and oversized files are
// skipped silently.
func (l *Loader) Load(ctx context.Context, vaultRoot, notePath, text string) (int, error) {
	paths := l.claim(l.pending(vaultRoot, notePath, text))
	defer l.release(paths)

	var (
		mu     sync.Mutex
		stored int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for _, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			uri, ok, err := l.read(p)
			if err != nil {
				l.logger.Debug("preview: read failed", slog.String("path", p), slog.String("error", err.Error()))
				return nil
			}
			if !ok {
				return nil
			}
			l.cache.Store(p, uri)
			mu.Lock()
			stored++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return stored, err
}

// Close cancels outstanding prefetches and waits for them to finish.
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
}

// pending lists candidate paths for text's images that are neither cached
// nor being loaded.
func (l *Loader) pending(vaultRoot, notePath, text string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, t := range format.ImageTargets(text) {
		for _, c := range format.ImageCandidates(vaultRoot, notePath, t.Target) {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			if _, busy := l.inflight[c]; busy {
				continue
			}
			if _, ok := l.cache.Lookup(c); ok {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func (l *Loader) claim(paths []string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := paths[:0]
	for _, p := range paths {
		if _, busy := l.inflight[p]; busy {
			continue
		}
		l.inflight[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (l *Loader) release(paths []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range paths {
		delete(l.inflight, p)
	}
}

// read returns the data URI for p, or ok=false when p is absent, a
// directory, or too large.
func (l *Loader) read(p string) (string, bool, error) {
	abs := filepath.FromSlash(p)
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("preview: stat: %w", err)
	}
	if info.IsDir() || (l.maxBytes > 0 && info.Size() > l.maxBytes) {
		return "", false, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", false, fmt.Errorf("preview: read: %w", err)
	}
	return DataURI(p, data), true, nil
}

// DataURI encodes data as a base64 data URI using the MIME type of p.
func DataURI(p string, data []byte) string {
	return "data:" + format.ImageMIME(p) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
