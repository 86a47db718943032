package editor

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Origin tags where a transaction came from. It is used for diagnostics only.
type Origin int

const (
	OriginSystem Origin = iota
	OriginInput
	OriginCommand
	OriginPlugin
)

func (o Origin) String() string {
	switch o {
	case OriginInput:
		return "input"
	case OriginCommand:
		return "command"
	case OriginPlugin:
		return "plugin"
	default:
		return "system"
	}
}

// TextChange replaces the half-open byte range [Start, End) with Insert.
type TextChange struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Insert string `json:"insert"`
}

// Transaction is an atomic set of non-overlapping changes. Changes may be given
// in any order. When SelectionAfter is nil the prior selection is remapped
// through the changes.
type Transaction struct {
	Changes        []TextChange
	SelectionAfter *Selection
	Origin         Origin
	Label          string
}

// Single builds a one-change transaction.
func Single(change TextChange, after *Selection, origin Origin, label string) Transaction {
	return Transaction{
		Changes:        []TextChange{change},
		SelectionAfter: after,
		Origin:         origin,
		Label:          label,
	}
}

// Outcome describes the effect of applying a transaction or input replacement.
type Outcome struct {
	TextChanged      bool   `json:"text_changed"`
	SelectionChanged bool   `json:"selection_changed"`
	Revision         uint64 `json:"revision"`
}

// normalizeChanges validates changes against text and returns them sorted by
// (start, end).
func normalizeChanges(changes []TextChange, text string) ([]TextChange, error) {
	n := len(text)
	sorted := slices.Clone(changes)
	slices.SortStableFunc(sorted, func(a, b TextChange) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	for _, c := range sorted {
		if c.Start < 0 || c.Start > c.End || c.End > n {
			return nil, &InvalidRangeError{Start: c.Start, End: c.End, Len: n}
		}
		if !isBoundary(text, c.Start) || !isBoundary(text, c.End) {
			return nil, &InvalidRangeError{Start: c.Start, End: c.End, Len: n}
		}
	}

	for i := 1; i < len(sorted); i++ {
		first, next := sorted[i-1], sorted[i]
		if next.Start < first.End {
			return nil, &OverlappingChangesError{
				FirstStart: first.Start,
				FirstEnd:   first.End,
				NextStart:  next.Start,
				NextEnd:    next.End,
			}
		}
	}
	return sorted, nil
}

// applyChanges assembles the new text from sorted, validated changes.
func applyChanges(text string, changes []TextChange) string {
	var b strings.Builder
	grow := len(text)
	for _, c := range changes {
		grow += len(c.Insert) - (c.End - c.Start)
	}
	if grow > 0 {
		b.Grow(grow)
	}
	cursor := 0
	for _, c := range changes {
		b.WriteString(text[cursor:c.Start])
		b.WriteString(c.Insert)
		cursor = c.End
	}
	b.WriteString(text[cursor:])
	return b.String()
}

// mapPosition carries pos through sorted changes. Every comparison uses the
// original offset; delta is the size change of the changes already passed.
func mapPosition(pos int, changes []TextChange) int {
	delta := 0
	for _, c := range changes {
		if pos < c.Start {
			break
		}
		if pos <= c.End {
			return c.Start + delta + len(c.Insert)
		}
		delta += len(c.Insert) - (c.End - c.Start)
	}
	return max(pos+delta, 0)
}

// isBoundary reports whether i does not fall inside a multi-byte code point.
func isBoundary(text string, i int) bool {
	return i == 0 || i == len(text) || utf8.RuneStart(text[i])
}

// floorBoundary moves i back to the start of the code point containing it.
func floorBoundary(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
