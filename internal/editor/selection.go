// Package editor owns the authoritative text and selection state of an open
// note and applies validated, possibly multi-span edits to it atomically.
//
// All offsets are byte offsets into UTF-8 text.
package editor

// Selection is a byte range into the current text. Start is always <= End.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSelection returns a normalized selection covering a and b in either order.
func NewSelection(a, b int) Selection {
	if a <= b {
		return Selection{Start: a, End: b}
	}
	return Selection{Start: b, End: a}
}

// Cursor returns an empty selection at pos.
func Cursor(pos int) Selection {
	return Selection{Start: pos, End: pos}
}

// IsCursor reports whether the selection is empty.
func (s Selection) IsCursor() bool {
	return s.Start == s.End
}

// Clamp bounds both ends to [0, n].
func (s Selection) Clamp(n int) Selection {
	return NewSelection(clampInt(s.Start, n), clampInt(s.End, n))
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
