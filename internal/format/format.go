// Package format renders markdown text as live-formatted markup: each line is
// classified by a small block state machine, and inline constructs are wrapped
// in classed spans whose syntax tokens are hidden unless the caret is inside.
//
// Format is a pure function. The only shared state is the set of compiled
// patterns, which are read-only.
package format

import (
	"strings"
)

// Option configures a Format call.
type Option func(*options)

type options struct {
	caret    int
	hasCaret bool
	images   *ImageResolver
}

// WithCaret sets the caret byte offset used to reveal syntax tokens.
func WithCaret(offset int) Option {
	return func(o *options) {
		o.caret = offset
		o.hasCaret = true
	}
}

// WithImages enables inline image previews through r. A nil resolver still
// previews external URLs.
func WithImages(r *ImageResolver) Option {
	return func(o *options) {
		o.images = r
	}
}

// blockState is the continuation state carried between lines.
type blockState int

const (
	stateNormal blockState = iota
	stateFrontmatter
	stateCodeFence
	stateMathBlock
	stateComment
)

// Format renders text as annotated markup.
func Format(text string, opts ...Option) string {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	var (
		b                   strings.Builder
		state               = stateNormal
		fenceMarker         byte
		fenceLen            int
		frontmatterPossible = true
		offset              int
	)
	b.Grow(len(text) * 2)

	for offset < len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += offset + 1
		}
		line := text[offset:end]
		bare := strings.TrimSuffix(line, "\n")
		trimmed := strings.TrimSpace(bare)
		lineOffset := offset
		offset = end

		switch state {
		case stateCodeFence:
			wrapLine(&b, ClassCodeBlock, escapeHTML(line))
			if fenceClose(bare, fenceMarker, fenceLen) {
				state = stateNormal
			}
			continue
		case stateMathBlock:
			wrapLine(&b, ClassMathBlock, escapeHTML(line))
			if trimmed == "$$" {
				state = stateNormal
			}
			continue
		case stateFrontmatter:
			wrapLine(&b, ClassFrontmatter, escapeHTML(line))
			if trimmed == "---" || trimmed == "..." {
				state = stateNormal
				frontmatterPossible = false
			}
			continue
		case stateComment:
			wrapLine(&b, ClassComment, escapeHTML(line))
			if strings.Count(bare, "%%")%2 == 1 {
				state = stateNormal
			}
			continue
		}

		if frontmatterPossible {
			if trimmed == "---" {
				wrapLine(&b, ClassFrontmatter, escapeHTML(line))
				state = stateFrontmatter
				continue
			}
			if trimmed != "" {
				frontmatterPossible = false
			}
		}

		if marker, n, ok := fenceOpen(bare); ok {
			wrapLine(&b, ClassCodeFence, escapeHTML(line))
			state, fenceMarker, fenceLen = stateCodeFence, marker, n
			continue
		}

		if trimmed == "$$" {
			wrapLine(&b, ClassMathBlock, escapeHTML(line))
			state = stateMathBlock
			continue
		}

		caret, hasCaret := lineCaret(o, lineOffset, len(line), len(line) == len(bare))
		html := renderInline(line, caret, hasCaret, o.images)
		if class := classifyLine(bare); class != "" {
			wrapLine(&b, class, html)
		} else {
			b.WriteString(html)
		}

		if strings.Count(bare, "%%")%2 == 1 {
			state = stateComment
		}
	}
	return b.String()
}

// lineCaret converts the document caret to an offset relative to the line
// starting at lineOffset. When the line has no trailing newline a caret just
// past its end still belongs to it.
func lineCaret(o options, lineOffset, lineLen int, unterminated bool) (int, bool) {
	if !o.hasCaret || o.caret < lineOffset {
		return 0, false
	}
	if o.caret < lineOffset+lineLen || (unterminated && o.caret == lineOffset+lineLen) {
		return o.caret - lineOffset, true
	}
	return 0, false
}

func wrapLine(b *strings.Builder, class, html string) {
	b.WriteString(`<span class="`)
	b.WriteString(class)
	b.WriteString(`">`)
	b.WriteString(html)
	b.WriteString(`</span>`)
}

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;")
)

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
