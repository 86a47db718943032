// Package preview loads local image bytes for inline previews. The formatter
// only reads from the Cache; a Loader fills it in the background and reports
// when new images arrive so the host can format again.
package preview

import (
	"sync"

	"github.com/starford/bedrock/internal/format"
)

// Cache maps absolute slash-separated image paths to data URIs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ format.ImageCache = (*Cache)(nil)

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Lookup implements format.ImageCache.
func (c *Cache) Lookup(absPath string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	uri, ok := c.entries[absPath]
	return uri, ok
}

// Store records the data URI for absPath.
func (c *Cache) Store(absPath, dataURI string) {
	c.mu.Lock()
	c.entries[absPath] = dataURI
	c.mu.Unlock()
}

// Invalidate drops absPath so the next prefetch reads it again.
func (c *Cache) Invalidate(absPath string) {
	c.mu.Lock()
	delete(c.entries, absPath)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
