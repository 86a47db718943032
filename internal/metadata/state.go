// Package metadata builds the vault-wide link and tag graph from per-note
// extraction results. Builds are deterministic full recomputes; Builder only
// memoizes per-note extraction by content hash.
package metadata

import (
	"maps"
	"slices"

	"github.com/starford/bedrock/internal/parser"
)

// State is an immutable snapshot of vault metadata.
type State struct {
	// Paths is the ordered note list the state was built from.
	Paths     []string                    `json:"paths"`
	FileCache map[string]parser.FileCache `json:"file_cache"`
	// ResolvedLinks counts link occurrences: source -> target -> n.
	ResolvedLinks map[string]map[string]int `json:"resolved_links"`
	// UnresolvedLinks counts raw link paths with no target: source -> link -> n.
	UnresolvedLinks map[string]map[string]int `json:"unresolved_links"`
	// Backlinks maps a target to its sorted, unique sources.
	Backlinks map[string][]string `json:"backlinks"`
	// TagsIndex maps a tag to the sorted, unique paths carrying it.
	TagsIndex map[string][]string `json:"tags_index"`

	lookup *lookup
}

func newState(paths []string) *State {
	return &State{
		Paths:           slices.Clone(paths),
		FileCache:       make(map[string]parser.FileCache, len(paths)),
		ResolvedLinks:   make(map[string]map[string]int),
		UnresolvedLinks: make(map[string]map[string]int),
		Backlinks:       make(map[string][]string),
		TagsIndex:       make(map[string][]string),
		lookup:          newLookup(paths),
	}
}

// Resolve maps a raw link path written in source to a note path.
func (s *State) Resolve(link, source string) (string, bool) {
	l := s.lookup
	if l == nil {
		l = newLookup(s.Paths)
	}
	return l.resolve(link, source)
}

// BacklinksOf returns the notes linking to path.
func (s *State) BacklinksOf(path string) []string {
	return slices.Clone(s.Backlinks[path])
}

// TagPaths returns the notes carrying tag. The tag is given without '#'.
func (s *State) TagPaths(tag string) []string {
	return slices.Clone(s.TagsIndex[tag])
}

// Tags returns every known tag, sorted.
func (s *State) Tags() []string {
	return slices.Sorted(maps.Keys(s.TagsIndex))
}

// Unresolved lists every unresolved link, ordered by source then link.
func (s *State) Unresolved() []Edge {
	var out []Edge
	for _, src := range slices.Sorted(maps.Keys(s.UnresolvedLinks)) {
		links := s.UnresolvedLinks[src]
		for _, l := range slices.Sorted(maps.Keys(links)) {
			out = append(out, Edge{Source: src, Target: l, Count: links[l]})
		}
	}
	return out
}

// Edge is one directed link with its occurrence count.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

// Node is one note in the graph.
type Node struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

// Graph is the resolved link graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Graph returns every note as a node, in path order, and every resolved link
// as an edge ordered by source then target.
func (s *State) Graph() Graph {
	g := Graph{Nodes: make([]Node, 0, len(s.Paths)), Edges: []Edge{}}
	for _, p := range s.Paths {
		g.Nodes = append(g.Nodes, Node{Path: p, Title: s.FileCache[p].Title})
	}
	for _, src := range slices.Sorted(maps.Keys(s.ResolvedLinks)) {
		targets := s.ResolvedLinks[src]
		for _, dst := range slices.Sorted(maps.Keys(targets)) {
			g.Edges = append(g.Edges, Edge{Source: src, Target: dst, Count: targets[dst]})
		}
	}
	return g
}
