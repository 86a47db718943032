// Package parser extracts per-note metadata (headings, tags, outgoing links,
// title, aliases) from Markdown text.
package parser

import (
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})[ \t]+(.+?)\s*$`)
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	mdLinkRe   = regexp.MustCompile(`!?\[[^\]\n]*\]\(([^)\n]+)\)`)
	tagRe      = regexp.MustCompile(`#[A-Za-z][A-Za-z0-9_/-]*`)
)

// Heading is one ATX heading. Line is 1-based.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// FileCache is everything extracted from a single note.
type FileCache struct {
	Headings []Heading `json:"headings"`
	// Tags are lower-cased without the leading '#', sorted and unique.
	Tags []string `json:"tags"`
	// Links are raw link paths (wiki and relative markdown), sorted and unique.
	Links   []string `json:"links"`
	Title   string   `json:"title,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// Extract parses text into a FileCache. It never fails; malformed frontmatter
// is ignored.
func Extract(text string) FileCache {
	var fc FileCache

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if m := headingRe.FindStringSubmatch(line); m != nil {
			fc.Headings = append(fc.Headings, Heading{
				Level: len(m[1]),
				Text:  strings.TrimSpace(m[2]),
				Line:  i + 1,
			})
		}
		for _, tag := range tagRe.FindAllString(line, -1) {
			fc.Tags = append(fc.Tags, strings.ToLower(strings.TrimLeft(tag, "#")))
		}
	}

	fc.Links = append(extractWikiLinks(text), extractMarkdownLinks(text)...)

	fc.Tags = sortUnique(fc.Tags)
	fc.Links = sortUnique(fc.Links)

	fm := frontmatter(text)
	fc.Title = deriveTitle(fm, fc.Headings)
	fc.Aliases = aliases(fm)
	return fc
}

// NormalizeRelPath trims whitespace and surrounding slashes and converts
// backslashes to forward slashes.
func NormalizeRelPath(p string) string {
	return strings.Trim(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"), "/")
}

// WikiTarget returns the link path of a wiki link body, without the heading
// and alias parts.
func WikiTarget(inner string) string {
	left, _, _ := strings.Cut(inner, "|")
	left, _, _ = strings.Cut(left, "#")
	return strings.TrimSpace(left)
}

func extractWikiLinks(text string) []string {
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
		if target := WikiTarget(m[1]); target != "" {
			out = append(out, NormalizeRelPath(target))
		}
	}
	return out
}

// extractMarkdownLinks collects local markdown link and image destinations.
// Fragments, external URLs and mailto links are skipped.
func extractMarkdownLinks(text string) []string {
	var out []string
	for _, m := range mdLinkRe.FindAllStringSubmatch(text, -1) {
		target := strings.Trim(strings.TrimSpace(m[1]), "<>")
		if target == "" || strings.HasPrefix(target, "#") {
			continue
		}
		lowered := strings.ToLower(target)
		if strings.Contains(lowered, "://") || strings.HasPrefix(lowered, "mailto:") {
			continue
		}
		target, _, _ = strings.Cut(target, "#")
		target, _, _ = strings.Cut(target, "?")
		if target = strings.TrimSpace(target); target != "" {
			out = append(out, NormalizeRelPath(target))
		}
	}
	return out
}

func sortUnique(s []string) []string {
	slices.Sort(s)
	return slices.Compact(s)
}

// frontmatter decodes a leading YAML block delimited by --- lines. It returns
// nil when there is none or it does not parse.
func frontmatter(text string) map[string]any {
	const delim = "---"
	trimmed := strings.TrimLeft(text, "\r\n")
	if !strings.HasPrefix(trimmed, delim) {
		return nil
	}
	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return nil
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return nil
	}
	return fm
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise "".
func deriveTitle(fm map[string]any, headings []Heading) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// aliases reads the "aliases" (or "alias") frontmatter field, accepting a
// single string or a list.
func aliases(fm map[string]any) []string {
	raw, ok := fm["aliases"]
	if !ok {
		raw = fm["alias"]
	}
	var out []string
	switch v := raw.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
