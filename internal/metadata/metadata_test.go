package metadata

import (
	"reflect"
	"slices"
	"testing"
)

func TestBuild_BacklinksAndUnresolved(t *testing.T) {
	texts := map[string]string{
		"A.md": "[[B]] and [[C]]",
		"B.md": "plain",
	}
	s := Build(texts, []string{"A.md", "B.md"})

	if got := s.ResolvedLinks["A.md"]["B.md"]; got != 1 {
		t.Errorf("resolved A->B = %d, want 1", got)
	}
	if got := s.BacklinksOf("B.md"); !slices.Equal(got, []string{"A.md"}) {
		t.Errorf("backlinks(B) = %v, want [A.md]", got)
	}
	if got := s.UnresolvedLinks["A.md"]["C"]; got != 1 {
		t.Errorf("unresolved A->C = %d, want 1", got)
	}
	if _, ok := s.ResolvedLinks["B.md"]; ok {
		t.Error("B should have no outgoing links")
	}
}

func TestBuild_CountsDistinctSpellings(t *testing.T) {
	s := Build(map[string]string{"A.md": "[[B]] [[b]] [[B|again]]", "B.md": ""}, []string{"A.md", "B.md"})
	if got := s.ResolvedLinks["A.md"]["B.md"]; got != 2 {
		t.Errorf("resolved A->B = %d, want 2", got)
	}
	if got := s.BacklinksOf("B.md"); !slices.Equal(got, []string{"A.md"}) {
		t.Errorf("backlinks(B) = %v, want deduplicated [A.md]", got)
	}
}

func TestBuild_TagsIndex(t *testing.T) {
	s := Build(map[string]string{"A.md": "#x", "B.md": "#X #y"}, []string{"B.md", "A.md"})
	if got := s.TagPaths("x"); !slices.Equal(got, []string{"A.md", "B.md"}) {
		t.Errorf("tag x = %v", got)
	}
	if got := s.Tags(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("tags = %v", got)
	}
}

func TestBuild_MissingTextIsEmpty(t *testing.T) {
	s := Build(map[string]string{}, []string{"A.md"})
	fc, ok := s.FileCache["A.md"]
	if !ok {
		t.Fatal("A.md missing from file cache")
	}
	if len(fc.Links) != 0 || len(fc.Tags) != 0 {
		t.Errorf("file cache = %+v, want empty", fc)
	}
}

func TestResolve(t *testing.T) {
	paths := []string{"A.md", "B.md", "notes/sub/C.md", "deep/dir/Target.md", "x/Dup.md", "y/Dup.md", "notes/A2.md"}
	s := Build(nil, paths)

	cases := []struct {
		name   string
		link   string
		source string
		want   string
		ok     bool
	}{
		{"exact", "B", "A.md", "B.md", true},
		{"with extension", "B.md", "A.md", "B.md", true},
		{"case insensitive", "b", "A.md", "B.md", true},
		{"vault relative path", "notes/sub/C", "A.md", "notes/sub/C.md", true},
		{"source relative path", "sub/C", "notes/A2.md", "notes/sub/C.md", true},
		{"unique stem", "target", "A.md", "deep/dir/Target.md", true},
		{"ambiguous stem", "Dup", "A.md", "", false},
		{"missing", "Nope", "A.md", "", false},
		{"empty", " / ", "A.md", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := s.Resolve(tc.link, tc.source)
			if got != tc.want || ok != tc.ok {
				t.Errorf("Resolve(%q, %q) = %q, %v; want %q, %v", tc.link, tc.source, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestBuild_AmbiguousStemStaysUnresolved(t *testing.T) {
	texts := map[string]string{"A.md": "[[Note]]"}
	s := Build(texts, []string{"A.md", "x/Note.md", "y/Note.md"})
	if got := s.UnresolvedLinks["A.md"]["Note"]; got != 1 {
		t.Errorf("unresolved A->Note = %d, want 1", got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	texts := map[string]string{"A.md": "[[B]] #t", "B.md": "[[A]] [[Z]]"}
	paths := []string{"A.md", "B.md"}
	if !reflect.DeepEqual(Build(texts, paths), Build(texts, paths)) {
		t.Error("Build is not deterministic")
	}
}

func TestBuilder_MatchesBuild(t *testing.T) {
	b := NewBuilder()
	texts := map[string]string{"A.md": "[[B]] #t", "B.md": "[[A]]", "C.md": "x"}
	paths := []string{"A.md", "B.md", "C.md"}

	if got, want := b.Build(texts, paths), Build(texts, paths); !reflect.DeepEqual(got, want) {
		t.Errorf("memoized build differs:\n got %+v\nwant %+v", got, want)
	}

	texts["A.md"] = "[[C]]"
	if got, want := b.Build(texts, paths), Build(texts, paths); !reflect.DeepEqual(got, want) {
		t.Errorf("memoized build after edit differs:\n got %+v\nwant %+v", got, want)
	}

	b.Build(texts, []string{"A.md"})
	if b.Len() != 1 {
		t.Errorf("memo size = %d, want 1 after pruning", b.Len())
	}
}

func TestGraph(t *testing.T) {
	s := Build(map[string]string{"A.md": "# Alpha\n[[B]]", "B.md": "[[A]]"}, []string{"A.md", "B.md"})
	g := s.Graph()
	if len(g.Nodes) != 2 || g.Nodes[0].Title != "Alpha" {
		t.Errorf("nodes = %+v", g.Nodes)
	}
	want := []Edge{{Source: "A.md", Target: "B.md", Count: 1}, {Source: "B.md", Target: "A.md", Count: 1}}
	if !slices.Equal(g.Edges, want) {
		t.Errorf("edges = %+v, want %+v", g.Edges, want)
	}
}

func TestUnresolved(t *testing.T) {
	s := Build(map[string]string{"A.md": "[[Z]] [[Y]]", "B.md": "[[Z]]"}, []string{"A.md", "B.md"})
	want := []Edge{
		{Source: "A.md", Target: "Y", Count: 1},
		{Source: "A.md", Target: "Z", Count: 1},
		{Source: "B.md", Target: "Z", Count: 1},
	}
	if got := s.Unresolved(); !slices.Equal(got, want) {
		t.Errorf("unresolved = %+v, want %+v", got, want)
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"a/b/Note.md": "Note",
		"x.tar.md":    "x.tar",
		".hidden":     ".hidden",
		"plain":       "plain",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
