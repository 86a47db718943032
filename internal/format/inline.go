package format

import (
	"regexp"
	"slices"
	"strings"
)

var (
	codeRe           = regexp.MustCompile("`([^`\n]+)`")
	embedRe          = regexp.MustCompile(`!\[\[([^\]\n]+)\]\]`)
	wikiRe           = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	mdImageRe        = regexp.MustCompile(`!\[([^\]\n]*)\]\(([^)\n]+)\)`)
	mdLinkRe         = regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\n]+)\)`)
	mathInlineRe     = regexp.MustCompile(`\$([^$\n]+)\$`)
	footnoteRefRe    = regexp.MustCompile(`\[\^[^\]\n]+\]`)
	inlineFootnoteRe = regexp.MustCompile(`\^\[[^\]\n]+\]`)
	tagRe            = regexp.MustCompile(`#[A-Za-z][A-Za-z0-9_/-]*`)
	blockIDRe        = regexp.MustCompile(`\^[A-Za-z0-9][A-Za-z0-9-]*`)
)

// emphasis delimiters, widest first within each character.
var emphasis = []struct {
	token string
	class string
}{
	{"***", ClassBoldItalic},
	{"___", ClassBoldItalic},
	{"**", ClassBold},
	{"__", ClassBold},
	{"~~", ClassStrike},
	{"==", ClassMark},
	{"*", ClassItalic},
	{"_", ClassItalic},
}

// span is one accepted inline construct within a line.
type span struct {
	start, end           int
	innerStart, innerEnd int
	openLen, closeLen    int
	class                string
	hide                 bool
	// plain spans render their raw text unstyled. They hold unmatched
	// emphasis openers so shorter delimiters cannot pair through them.
	plain   bool
	preview string
}

type spanSet []span

// add accepts s unless it overlaps an already accepted span.
func (ss *spanSet) add(s span) {
	for _, x := range *ss {
		if s.start < x.end && s.end > x.start {
			return
		}
	}
	*ss = append(*ss, s)
}

// addPattern adds every match of re. With hide set, group 1 is the inner text
// and the remainder of the match forms the open and close tokens.
func (ss *spanSet) addPattern(line string, re *regexp.Regexp, class string, hide bool) {
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		s := span{start: m[0], end: m[1], innerStart: m[0], innerEnd: m[1], class: class, hide: hide}
		if hide {
			s.innerStart, s.innerEnd = m[2], m[3]
			s.openLen, s.closeLen = m[2]-m[0], m[1]-m[3]
		}
		ss.add(s)
	}
}

// collectSpans runs every inline matcher in precedence order.
func collectSpans(line string, images *ImageResolver) spanSet {
	var ss spanSet

	ss.addPattern(line, codeRe, ClassCode, true)
	ss.addDelimited(line, "%%", ClassComment, false, true)

	for _, m := range embedRe.FindAllStringSubmatchIndex(line, -1) {
		target := StripWikiTarget(line[m[2]:m[3]])
		ss.add(span{
			start: m[0], end: m[1],
			innerStart: m[2], innerEnd: m[3],
			openLen: 3, closeLen: 2,
			class:   ClassEmbed,
			hide:    true,
			preview: images.previewHTML(target, ""),
		})
	}
	ss.addPattern(line, wikiRe, ClassLink, true)
	for _, m := range mdImageRe.FindAllStringSubmatchIndex(line, -1) {
		target := StripMarkdownImageTarget(line[m[4]:m[5]])
		ss.add(span{
			start: m[0], end: m[1],
			innerStart: m[0], innerEnd: m[1],
			class:   ClassEmbed,
			preview: images.previewHTML(target, line[m[2]:m[3]]),
		})
	}
	ss.addPattern(line, mdLinkRe, ClassLink, false)

	for _, e := range emphasis {
		ss.addDelimited(line, e.token, e.class, true, false)
	}

	ss.addPattern(line, mathInlineRe, ClassMathInline, true)
	ss.addPattern(line, footnoteRefRe, ClassFootnote, false)
	ss.addPattern(line, inlineFootnoteRe, ClassFootnote, false)
	ss.addPattern(line, tagRe, ClassTag, false)
	ss.addPattern(line, blockIDRe, ClassBlockID, false)

	slices.SortFunc(ss, func(a, b span) int { return a.start - b.start })
	return ss
}

// addDelimited pairs each unescaped occurrence of token with the next one.
// An unmatched opener either styles the rest of the line (toEOL) or is kept
// as a plain span.
func (ss *spanSet) addDelimited(line, token, class string, hide, toEOL bool) {
	n := len(token)
	open := -1
	for _, pos := range delimiterPositions(line, token) {
		if open < 0 {
			open = pos
			continue
		}
		ss.add(span{
			start: open, end: pos + n,
			innerStart: open + n, innerEnd: pos,
			openLen: n, closeLen: n,
			class: class,
			hide:  hide,
		})
		open = -1
	}
	if open < 0 {
		return
	}
	if toEOL {
		ss.add(span{start: open, end: len(line), innerStart: open, innerEnd: len(line), class: class})
		return
	}
	ss.add(span{start: open, end: open + n, plain: true})
}

// delimiterPositions returns the non-overlapping, unescaped offsets of token.
func delimiterPositions(line, token string) []int {
	var out []int
	for i := 0; i+len(token) <= len(line); {
		if strings.HasPrefix(line[i:], token) && !escapedAt(line, i) {
			out = append(out, i)
			i += len(token)
			continue
		}
		i++
	}
	return out
}

// escapedAt reports whether line[i] is preceded by an odd number of backslashes.
func escapedAt(line string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// renderInline renders one line. caret is relative to the line start and only
// meaningful when hasCaret is set.
func renderInline(line string, caret int, hasCaret bool, images *ImageResolver) string {
	spans := collectSpans(line, images)
	if len(spans) == 0 {
		return escapeHTML(line)
	}

	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			continue
		}
		b.WriteString(escapeHTML(line[pos:s.start]))
		inside := hasCaret && caret >= s.start && caret <= s.end

		switch {
		case s.plain:
			b.WriteString(escapeHTML(line[s.start:s.end]))
		case s.hide:
			tokenClass := ClassTokenHidden
			if inside {
				tokenClass = ClassTokenVisible
			}
			writeSpan(&b, tokenClass, line[s.start:s.start+s.openLen])
			writeSpan(&b, s.class, line[s.innerStart:s.innerEnd])
			writeSpan(&b, tokenClass, line[s.end-s.closeLen:s.end])
		case inside:
			b.WriteString(escapeHTML(line[s.start:s.end]))
		default:
			writeSpan(&b, s.class, line[s.start:s.end])
		}
		b.WriteString(s.preview)
		pos = s.end
	}
	b.WriteString(escapeHTML(line[pos:]))
	return b.String()
}

func writeSpan(b *strings.Builder, class, raw string) {
	b.WriteString(`<span class="`)
	b.WriteString(class)
	b.WriteString(`">`)
	b.WriteString(escapeHTML(raw))
	b.WriteString(`</span>`)
}
