package metadata

import (
	"slices"
	"sync"

	"github.com/starford/bedrock/internal/checksum"
	"github.com/starford/bedrock/internal/parser"
)

// Build extracts every note in paths from texts and links them. Notes missing
// from texts are treated as empty.
func Build(texts map[string]string, paths []string) *State {
	return build(texts, paths, func(_, text string) parser.FileCache { return parser.Extract(text) })
}

func build(texts map[string]string, paths []string, extract func(path, text string) parser.FileCache) *State {
	s := newState(paths)

	for _, p := range paths {
		fc := extract(p, texts[p])
		for _, tag := range fc.Tags {
			s.TagsIndex[tag] = append(s.TagsIndex[tag], p)
		}
		s.FileCache[p] = fc
	}

	for _, p := range paths {
		for _, link := range s.FileCache[p].Links {
			if target, ok := s.lookup.resolve(link, p); ok {
				bump(s.ResolvedLinks, p, target)
				s.Backlinks[target] = append(s.Backlinks[target], p)
				continue
			}
			bump(s.UnresolvedLinks, p, link)
		}
	}

	for tag, ps := range s.TagsIndex {
		s.TagsIndex[tag] = sortUnique(ps)
	}
	for target, ps := range s.Backlinks {
		s.Backlinks[target] = sortUnique(ps)
	}
	return s
}

func bump(m map[string]map[string]int, src, dst string) {
	inner, ok := m[src]
	if !ok {
		inner = make(map[string]int)
		m[src] = inner
	}
	inner[dst]++
}

func sortUnique(s []string) []string {
	slices.Sort(s)
	return slices.Compact(s)
}

type memoEntry struct {
	key uint64
	fc  parser.FileCache
}

// Builder is Build with per-note extraction memoized by content hash. Results
// are identical to Build. It is safe for concurrent use.
type Builder struct {
	mu   sync.Mutex
	memo map[string]memoEntry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{memo: make(map[string]memoEntry)}
}

// Build is the memoized equivalent of the package-level Build. Memo entries
// for paths no longer present are dropped.
func (b *Builder) Build(texts map[string]string, paths []string) *State {
	b.mu.Lock()
	defer b.mu.Unlock()

	live := make(map[string]struct{}, len(paths))
	s := build(texts, paths, func(p, text string) parser.FileCache {
		live[p] = struct{}{}
		key := checksum.Key(text)
		if e, ok := b.memo[p]; ok && e.key == key {
			return e.fc
		}
		fc := parser.Extract(text)
		b.memo[p] = memoEntry{key: key, fc: fc}
		return fc
	})

	for p := range b.memo {
		if _, ok := live[p]; !ok {
			delete(b.memo, p)
		}
	}
	return s
}

// Len reports the number of memoized notes.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.memo)
}
