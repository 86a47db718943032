package metadata

import (
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var notePool = []string{"A.md", "B.md", "dir/C.md", "dir/A.md", "x/y/D.md"}

func TestProperty_GraphConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var paths []string
		for _, p := range notePool {
			if rapid.Bool().Draw(t, "include "+p) {
				paths = append(paths, p)
			}
		}
		texts := make(map[string]string, len(paths))
		for _, p := range paths {
			links := rapid.SliceOfN(rapid.SampledFrom([]string{"A", "B", "C", "D", "dir/A", "Z", "y/D"}), 0, 4).Draw(t, "links")
			var b strings.Builder
			for _, l := range links {
				b.WriteString("[[" + l + "]] ")
			}
			texts[p] = b.String()
		}

		s := Build(texts, paths)
		for src, targets := range s.ResolvedLinks {
			for dst, n := range targets {
				if n <= 0 {
					t.Fatalf("non-positive count %d for %s -> %s", n, src, dst)
				}
				if !slices.Contains(paths, dst) {
					t.Fatalf("resolved target %q is not a note", dst)
				}
				if !slices.Contains(s.Backlinks[dst], src) {
					t.Fatalf("backlinks(%s) = %v, missing %s", dst, s.Backlinks[dst], src)
				}
			}
		}
		for dst, sources := range s.Backlinks {
			if !slices.IsSorted(sources) || len(slices.Compact(slices.Clone(sources))) != len(sources) {
				t.Fatalf("backlinks(%s) = %v, not sorted and unique", dst, sources)
			}
			for _, src := range sources {
				if s.ResolvedLinks[src][dst] == 0 {
					t.Fatalf("backlink %s -> %s without a resolved link", src, dst)
				}
			}
		}
		for src, links := range s.UnresolvedLinks {
			for l := range links {
				if _, ok := s.Resolve(l, src); ok {
					t.Fatalf("unresolved link %q from %s resolves", l, src)
				}
			}
		}
	})
}
