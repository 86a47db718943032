package editor

import (
	"errors"
	"testing"
)

func TestNewSelection_Normalizes(t *testing.T) {
	sel := NewSelection(5, 2)
	if sel.Start != 2 || sel.End != 5 {
		t.Errorf("NewSelection(5, 2) = %+v, want {2 5}", sel)
	}
	if !Cursor(3).IsCursor() {
		t.Error("Cursor(3) should be a cursor")
	}
}

func TestSelection_Clamp(t *testing.T) {
	got := Selection{Start: -3, End: 40}.Clamp(10)
	if got != (Selection{Start: 0, End: 10}) {
		t.Errorf("Clamp = %+v, want {0 10}", got)
	}
}

func TestNewSnapshot_CursorAtEnd(t *testing.T) {
	s := NewSnapshot("hello")
	if s.Selection != Cursor(5) {
		t.Errorf("selection = %+v, want cursor at 5", s.Selection)
	}
	if s.Revision != 0 {
		t.Errorf("revision = %d, want 0", s.Revision)
	}
}

func TestApply_UnorderedChanges(t *testing.T) {
	s := NewSnapshot("abcdef")
	out, err := s.Apply(Transaction{Changes: []TextChange{
		{Start: 4, End: 5, Insert: "X"},
		{Start: 0, End: 1, Insert: "Y"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Text != "YbcdXf" {
		t.Errorf("text = %q, want %q", s.Text, "YbcdXf")
	}
	if !out.TextChanged || out.Revision != 1 {
		t.Errorf("outcome = %+v, want text changed at revision 1", out)
	}
	if s.Selection != Cursor(6) {
		t.Errorf("selection = %+v, want cursor at 6", s.Selection)
	}
}

func TestApply_OverlapRejected(t *testing.T) {
	s := NewSnapshot("abcdef")
	_, err := s.Apply(Transaction{Changes: []TextChange{
		{Start: 1, End: 4, Insert: "x"},
		{Start: 3, End: 5, Insert: "y"},
	}})
	if !errors.Is(err, ErrOverlappingChanges) {
		t.Fatalf("err = %v, want ErrOverlappingChanges", err)
	}
	var oe *OverlappingChangesError
	if !errors.As(err, &oe) || oe.FirstStart != 1 || oe.NextStart != 3 {
		t.Errorf("err detail = %+v", oe)
	}
	if s.Text != "abcdef" || s.Revision != 0 {
		t.Errorf("snapshot mutated: text=%q revision=%d", s.Text, s.Revision)
	}
}

func TestApply_InvalidRange(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		change TextChange
	}{
		{"past end", "abc", TextChange{Start: 2, End: 9}},
		{"negative", "abc", TextChange{Start: -1, End: 1}},
		{"reversed", "abc", TextChange{Start: 2, End: 1}},
		{"splits code point", "é", TextChange{Start: 1, End: 1, Insert: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSnapshot(tc.text)
			_, err := s.Apply(Single(tc.change, nil, OriginSystem, "test"))
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("err = %v, want ErrInvalidRange", err)
			}
			if s.Text != tc.text {
				t.Errorf("text = %q, want unchanged %q", s.Text, tc.text)
			}
		})
	}
}

func TestApply_SelectionOnlyKeepsRevision(t *testing.T) {
	s := NewSnapshot("abc")
	after := NewSelection(0, 2)
	out, err := s.Apply(Transaction{SelectionAfter: &after})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TextChanged || !out.SelectionChanged {
		t.Errorf("outcome = %+v, want selection-only change", out)
	}
	if s.Revision != 0 {
		t.Errorf("revision = %d, want 0", s.Revision)
	}
}

func TestApply_SelectionAfterClamped(t *testing.T) {
	s := NewSnapshot("abc")
	after := NewSelection(1, 99)
	if _, err := s.Apply(Transaction{SelectionAfter: &after}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Selection != NewSelection(1, 3) {
		t.Errorf("selection = %+v, want {1 3}", s.Selection)
	}
}

func TestApply_RemapsSelection(t *testing.T) {
	s := NewSnapshot("hello world")
	s.SetSelection(Cursor(8))
	_, err := s.Apply(Single(TextChange{Start: 0, End: 0, Insert: ">> "}, nil, OriginPlugin, "prefix"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Selection != Cursor(11) {
		t.Errorf("selection = %+v, want cursor at 11", s.Selection)
	}
}

func TestSetSelection_FloorsToCodePoint(t *testing.T) {
	s := NewSnapshot("aéb")
	s.SetSelection(Cursor(2))
	if s.Selection != Cursor(1) {
		t.Errorf("selection = %+v, want cursor at 1", s.Selection)
	}
}

func TestReplaceFromInput(t *testing.T) {
	s := NewSnapshot("abc")
	out := s.ReplaceFromInput("abcd", Cursor(4))
	if !out.TextChanged || out.Revision != 1 {
		t.Errorf("outcome = %+v, want text changed at revision 1", out)
	}
	out = s.ReplaceFromInput("abcd", Cursor(2))
	if out.TextChanged || !out.SelectionChanged || out.Revision != 1 {
		t.Errorf("outcome = %+v, want selection-only change at revision 1", out)
	}
}

func TestOrigin_String(t *testing.T) {
	if OriginCommand.String() != "command" {
		t.Errorf("OriginCommand = %q", OriginCommand.String())
	}
	if OriginSystem.String() != "system" {
		t.Errorf("OriginSystem = %q", OriginSystem.String())
	}
}

func TestApply_RemapIgnoresLaterChanges(t *testing.T) {
	s := snapshotAt("hello world", Cursor(10))
	_, err := s.Apply(Transaction{Changes: []TextChange{
		{Start: 0, End: 0, Insert: ">>"},
		{Start: 11, End: 11, Insert: "<<"},
	}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Text != ">>hello world<<" {
		t.Fatalf("text = %q", s.Text)
	}
	if s.Selection != Cursor(12) {
		t.Errorf("selection = %+v, want cursor at 12 before %q", s.Selection, "d")
	}
}

func TestApply_RemapCollapsesIntoChange(t *testing.T) {
	s := snapshotAt("abcdefgh", NewSelection(1, 6))
	_, err := s.Apply(Transaction{Changes: []TextChange{
		{Start: 5, End: 7, Insert: "XYZ"},
		{Start: 0, End: 2, Insert: ""},
	}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Text != "cdeXYZh" {
		t.Fatalf("text = %q", s.Text)
	}
	// 1 falls in [0,2] and collapses to 0; 6 falls in [5,7] and lands after XYZ.
	if s.Selection != NewSelection(0, 6) {
		t.Errorf("selection = %+v, want {0 6}", s.Selection)
	}
}
