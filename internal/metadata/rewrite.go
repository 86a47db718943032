package metadata

import (
	"regexp"
	"strings"

	"github.com/starford/bedrock/internal/parser"
)

var wikiLinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// RewriteWikiLinks retargets wiki links that point at oldPath so they point at
// newPath. Links are matched by full path, path without .md, and, when
// includeStem is set, by bare file stem. Path-form links are rewritten to the
// new path and stem-form links to the new stem; a .md suffix, #heading and
// |alias are preserved. It reports whether anything changed.
func RewriteWikiLinks(content, oldPath, newPath string, includeStem bool) (string, bool) {
	oldNoExt := StripMD(oldPath)
	newNoExt := StripMD(newPath)
	newStem := baseName(newNoExt)

	refs := map[string]struct{}{
		linkKey(oldPath):  {},
		linkKey(oldNoExt): {},
	}
	if includeStem {
		refs[linkKey(baseName(oldNoExt))] = struct{}{}
	}

	changed := false
	out := wikiLinkRe.ReplaceAllStringFunc(content, func(whole string) string {
		inner := whole[2 : len(whole)-2]

		targetAndHeading, alias, hasAlias := strings.Cut(inner, "|")
		target, heading, _ := strings.Cut(targetAndHeading, "#")
		target = strings.TrimSpace(target)
		if target == "" {
			return whole
		}
		if _, ok := refs[linkKey(target)]; !ok {
			return whole
		}
		changed = true

		rebuilt := newStem
		if strings.Contains(target, "/") {
			rebuilt = newNoExt
		}
		if HasMD(target) {
			rebuilt += ".md"
		}
		if heading != "" {
			rebuilt += "#" + heading
		}
		if hasAlias {
			rebuilt += "|" + alias
		}
		return "[[" + rebuilt + "]]"
	})
	return out, changed
}

// IncludeStemMatch reports whether stem-form links may be rewritten when
// oldPath is renamed, which is only safe when its stem is unique.
func IncludeStemMatch(paths []string, oldPath string) bool {
	return StemOccurrences(paths, oldPath) <= 1
}

func linkKey(p string) string {
	return strings.ToLower(parser.NormalizeRelPath(p))
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
