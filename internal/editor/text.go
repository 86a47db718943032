package editor

import "strings"

// lineStart returns the offset just after the last '\n' before pos.
func lineStart(text string, pos int) int {
	pos = clampInt(pos, len(text))
	return strings.LastIndexByte(text[:pos], '\n') + 1
}

// lineEnd returns the offset of the first '\n' at or after pos, or len(text).
func lineEnd(text string, pos int) int {
	pos = clampInt(pos, len(text))
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(text)
}

// NormalizePastedText converts CRLF and CR line endings to LF and replaces
// non-breaking spaces with plain spaces.
func NormalizePastedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// Paste replaces the selection with normalized clipboard text and leaves the
// cursor after it.
func Paste(s *Snapshot, clip string) Transaction {
	sel := clampTo(s.Selection, s.Text)
	insert := NormalizePastedText(clip)
	after := Cursor(sel.Start + len(insert))
	return Single(TextChange{Start: sel.Start, End: sel.End, Insert: insert}, &after, OriginInput, "paste")
}
