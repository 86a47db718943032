package format

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	headingRe        = regexp.MustCompile(`^(#{1,6})[^\S\n]+.*$`)
	calloutRe        = regexp.MustCompile(`^\s*>\s*\[![A-Za-z0-9-]+\][+-]?\s*.*$`)
	hrRe             = regexp.MustCompile(`^\s{0,3}(?:(?:\*[\t ]*){3,}|(?:-[\t ]*){3,}|(?:_[\t ]*){3,})\s*$`)
	footnoteDefRe    = regexp.MustCompile(`^\s*\[\^[^\]]+\]:\s+.*$`)
	quoteRe          = regexp.MustCompile(`^\s*>\s+.*$`)
	taskRe           = regexp.MustCompile(`^\s*[-*+]\s+\[(?: |x|X)\]\s+.*$`)
	listRe           = regexp.MustCompile(`^\s*[-*+]\s+.*$`)
	orderedRe        = regexp.MustCompile(`^\s*\d+[.)]\s+.*$`)
	tableRowRe       = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	tableSeparatorRe = regexp.MustCompile(`^\s*\|?(?:\s*:?-{3,}:?\s*\|)+\s*:?-{3,}:?\s*\|?\s*$`)
)

// classifyLine returns the block class for a line outside any multi-line
// block, or "" when the line has no block-level form. First match wins.
func classifyLine(line string) string {
	switch {
	case headingRe.MatchString(line):
		return HeadingClass(strings.IndexFunc(line, func(r rune) bool { return r != '#' }))
	case calloutRe.MatchString(line):
		return ClassCallout
	case hrRe.MatchString(line):
		return ClassHR
	case footnoteDefRe.MatchString(line):
		return ClassFootnoteDef
	case quoteRe.MatchString(line):
		return ClassQuote
	case taskRe.MatchString(line):
		return ClassTask
	case orderedRe.MatchString(line), listRe.MatchString(line):
		return ClassList
	case tableSeparatorRe.MatchString(line), tableRowRe.MatchString(line):
		return ClassTable
	default:
		return ""
	}
}

// fenceOpen reports whether line opens a code fence: after indentation, a run
// of at least three backticks or tildes.
func fenceOpen(line string) (marker byte, n int, ok bool) {
	t := strings.TrimLeftFunc(line, unicode.IsSpace)
	if len(t) < 3 || (t[0] != '`' && t[0] != '~') {
		return 0, 0, false
	}
	n = runLength(t, t[0])
	if n < 3 {
		return 0, 0, false
	}
	return t[0], n, true
}

// fenceClose reports whether line closes a fence opened with marker repeated
// minLen times.
func fenceClose(line string, marker byte, minLen int) bool {
	t := strings.TrimLeftFunc(line, unicode.IsSpace)
	if len(t) < minLen || len(t) == 0 || t[0] != marker {
		return false
	}
	n := runLength(t, marker)
	if n < minLen {
		return false
	}
	return strings.TrimSpace(t[n:]) == ""
}

func runLength(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
