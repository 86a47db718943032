package format

import (
	"strings"
	"testing"
)

const (
	hiddenOpen  = `<span class="md-token md-token-hidden">`
	visibleOpen = `<span class="md-token md-token-visible">`
)

func TestFormat_BoldHiddenWithoutCaret(t *testing.T) {
	got := Format("**bold**")
	want := hiddenOpen + `**</span><span class="hl-bold">bold</span>` + hiddenOpen + `**</span>`
	if got != want {
		t.Errorf("Format = %q\nwant %q", got, want)
	}
}

func TestFormat_BoldVisibleWithCaretInside(t *testing.T) {
	got := Format("**bold**", WithCaret(4))
	want := visibleOpen + `**</span><span class="hl-bold">bold</span>` + visibleOpen + `**</span>`
	if got != want {
		t.Errorf("Format = %q\nwant %q", got, want)
	}
}

func TestFormat_CaretAtDocumentEnd(t *testing.T) {
	got := Format("*a*", WithCaret(3))
	if !strings.Contains(got, visibleOpen) {
		t.Errorf("caret at end should reveal tokens: %q", got)
	}
}

func TestFormat_CaretOnlyAffectsItsLine(t *testing.T) {
	got := Format("*a*\n*b*", WithCaret(1))
	lines := strings.SplitAfter(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want 2: %q", len(lines), got)
	}
	if !strings.Contains(lines[0], visibleOpen) {
		t.Errorf("first line should be revealed: %q", lines[0])
	}
	if strings.Contains(lines[1], visibleOpen) || !strings.Contains(lines[1], hiddenOpen) {
		t.Errorf("second line should stay hidden: %q", lines[1])
	}
}

func TestFormat_UnmatchedOpenerStaysPlain(t *testing.T) {
	for _, in := range []string{"**bold", "a *b", "~~gone", "***"} {
		if got := Format(in); strings.Contains(got, "md-token") {
			t.Errorf("Format(%q) = %q, want no tokens", in, got)
		}
	}
	if got := Format("**bold"); got != "**bold" {
		t.Errorf("Format(%q) = %q", "**bold", got)
	}
}

func TestFormat_TrailingUnmatchedDoesNotRepair(t *testing.T) {
	got := Format("*a* **")
	want := hiddenOpen + `*</span><span class="hl-italic">a</span>` + hiddenOpen + `*</span> **`
	if got != want {
		t.Errorf("Format = %q\nwant %q", got, want)
	}
}

func TestFormat_EscapedDelimiters(t *testing.T) {
	in := `\*not\*`
	if got := Format(in); got != in {
		t.Errorf("Format(%q) = %q, want raw text", in, got)
	}
}

func TestFormat_Blocks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# Title\n", `<span class="hl-h1"># Title` + "\n" + `</span>`},
		{"heading with tag", "## A #tag", `<span class="hl-h2">## A <span class="hl-tag">#tag</span></span>`},
		{"quote", "> hi", `<span class="hl-quote">&gt; hi</span>`},
		{"callout", "> [!note] Title", `<span class="hl-callout">&gt; [!note] Title</span>`},
		{"task", "- [ ] t", `<span class="hl-task">- [ ] t</span>`},
		{"ordered", "1. one", `<span class="hl-list">1. one</span>`},
		{"bullet", "* one", `<span class="hl-list">* one</span>`},
		{"hr", "***", `<span class="hl-hr">***</span>`},
		{"table", "| a | b |", `<span class="hl-table">| a | b |</span>`},
		{"table separator", "|---|---|", `<span class="hl-table">|---|---|</span>`},
		{"footnote def", "[^1]: text", `<span class="hl-footnote-def"><span class="hl-footnote">[^1]</span>: text</span>`},
		{"plain", "a < b & c", "a &lt; b &amp; c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.in); got != tc.want {
				t.Errorf("Format(%q) = %q\nwant %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormat_CodeFence(t *testing.T) {
	got := Format("```go\nx < y\n```\nafter")
	want := `<span class="hl-codeblock hl-code-fence">` + "```go\n" + `</span>` +
		`<span class="hl-codeblock">x &lt; y` + "\n" + `</span>` +
		`<span class="hl-codeblock">` + "```\n" + `</span>` +
		"after"
	if got != want {
		t.Errorf("Format = %q\nwant %q", got, want)
	}
}

func TestFormat_CodeFenceNeedsLongEnoughClose(t *testing.T) {
	got := Format("````\n```\n````\n**x**")
	if strings.Count(got, `class="hl-codeblock"`) != 2 {
		t.Errorf("short closer should stay inside the fence: %q", got)
	}
	if !strings.Contains(got, `<span class="hl-bold">x</span>`) {
		t.Errorf("text after the fence should be formatted: %q", got)
	}
}

func TestFormat_CodeFenceSuppressesInline(t *testing.T) {
	got := Format("~~~\n**x**\n~~~")
	if strings.Contains(got, "hl-bold") {
		t.Errorf("inline formatting inside a fence: %q", got)
	}
}

func TestFormat_Frontmatter(t *testing.T) {
	got := Format("---\ntitle: x\n---\n# H")
	if strings.Count(got, `class="hl-frontmatter"`) != 3 {
		t.Errorf("frontmatter lines: %q", got)
	}
	if !strings.HasSuffix(got, `<span class="hl-h1"># H</span>`) {
		t.Errorf("heading after frontmatter: %q", got)
	}
}

func TestFormat_FrontmatterOnlyAtStart(t *testing.T) {
	got := Format("text\n---\nmore")
	if strings.Contains(got, "hl-frontmatter") {
		t.Errorf("frontmatter opened after content: %q", got)
	}
}

func TestFormat_MathBlock(t *testing.T) {
	got := Format("$$\nx^2\n$$")
	want := `<span class="hl-math-block">$$` + "\n" + `</span>` +
		`<span class="hl-math-block">x^2` + "\n" + `</span>` +
		`<span class="hl-math-block">$$</span>`
	if got != want {
		t.Errorf("Format = %q\nwant %q", got, want)
	}
}

func TestFormat_CommentBlock(t *testing.T) {
	got := Format("a %% start\nhidden\nend %% b\nafter")
	want := `a <span class="hl-comment">%% start` + "\n" + `</span>` +
		`<span class="hl-comment">hidden` + "\n" + `</span>` +
		`<span class="hl-comment">end %% b` + "\n" + `</span>` +
		"after"
	if got != want {
		t.Errorf("Format = %q\nwant %q", got, want)
	}
}

func TestFormat_InlineForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"wiki link", "see [[Note]]",
			"see " + hiddenOpen + `[[</span><span class="hl-link">Note</span>` + hiddenOpen + `]]</span>`},
		{"markdown link", "[a](b)", `<span class="hl-link">[a](b)</span>`},
		{"code wins over bold", "`**x**`",
			hiddenOpen + "`</span>" + `<span class="hl-code">**x**</span>` + hiddenOpen + "`</span>"},
		{"inline math", "$x$",
			hiddenOpen + `$</span><span class="hl-math-inline">x</span>` + hiddenOpen + `$</span>`},
		{"block id", "text ^abc-1", `text <span class="hl-block-id">^abc-1</span>`},
		{"inline footnote", "x^[note]", `x<span class="hl-footnote">^[note]</span>`},
		{"highlight", "==hi==",
			hiddenOpen + `==</span><span class="hl-mark">hi</span>` + hiddenOpen + `==</span>`},
		{"bold italic", "***x***",
			hiddenOpen + `***</span><span class="hl-bold hl-italic">x</span>` + hiddenOpen + `***</span>`},
		{"inline comment", "a %%c%% b", `a <span class="hl-comment">%%c%%</span> b`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.in); got != tc.want {
				t.Errorf("Format(%q) = %q\nwant %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormat_NonHidingSpanRawWithCaret(t *testing.T) {
	if got := Format("[a](b)", WithCaret(1)); got != "[a](b)" {
		t.Errorf("Format = %q, want raw link text", got)
	}
}

func TestHeadingClass(t *testing.T) {
	if HeadingClass(3) != "hl-h3" || HeadingClass(0) != "hl-h1" || HeadingClass(9) != "hl-h6" {
		t.Error("HeadingClass out of range handling")
	}
}
