package format

import (
	"html"
	"regexp"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var markupTagRe = regexp.MustCompile(`<[^>]*>`)

var fragments = []string{
	"a", "b", " ", "*", "**", "_", "__", "~~", "==", "`", "[[", "]]", "![[", "(", ")",
	"[", "]", "$", "$$", "%%", "#tag", "^id", `\`, "<", "&", "\n", "---", "```", "> ",
	"- ", "1. ", "| ", "[^1]", ".png",
}

// Stripping markup and unescaping must give back the input: formatting only
// annotates text, it never drops or duplicates it.
func TestProperty_FormatPreservesText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(fragments), 0, 30).Draw(t, "parts")
		text := strings.Join(parts, "")
		caret := rapid.IntRange(0, len(text)).Draw(t, "caret")

		for _, out := range []string{Format(text), Format(text, WithCaret(caret))} {
			got := html.UnescapeString(markupTagRe.ReplaceAllString(out, ""))
			if got != text {
				t.Fatalf("text lost:\n in  %q\n out %q\n got %q", text, out, got)
			}
		}
	})
}

func TestProperty_FormatDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := strings.Join(rapid.SliceOfN(rapid.SampledFrom(fragments), 0, 20).Draw(t, "parts"), "")
		if Format(text) != Format(text) {
			t.Fatalf("Format(%q) is not deterministic", text)
		}
	})
}
