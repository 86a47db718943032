package metadata

import (
	"path"
	"strings"

	"github.com/starford/bedrock/internal/parser"
)

// lookup indexes note paths for link resolution.
type lookup struct {
	files map[string]string   // lower-cased path -> path
	stems map[string][]string // lower-cased stem -> paths
}

func newLookup(paths []string) *lookup {
	l := &lookup{
		files: make(map[string]string, len(paths)),
		stems: make(map[string][]string, len(paths)),
	}
	for _, p := range paths {
		l.files[strings.ToLower(p)] = p
		stem := strings.ToLower(Stem(p))
		l.stems[stem] = append(l.stems[stem], p)
	}
	return l
}

// resolve tries, in order: the link as a vault-relative path, the link
// relative to the source note's directory (only for links containing '/'),
// and finally a unique file-stem match. Matching is case-insensitive.
func (l *lookup) resolve(link, source string) (string, bool) {
	raw := parser.NormalizeRelPath(link)
	if raw == "" {
		return "", false
	}

	candidates := []string{withMD(raw)}
	if strings.Contains(raw, "/") {
		if i := strings.LastIndexByte(source, '/'); i > 0 {
			candidates = append(candidates, withMD(parser.NormalizeRelPath(source[:i]+"/"+raw)))
		}
	}
	for _, c := range candidates {
		if found, ok := l.files[strings.ToLower(c)]; ok {
			return found, true
		}
	}

	if matches := l.stems[strings.ToLower(Stem(raw))]; len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

// HasMD reports whether p ends in .md, ignoring case.
func HasMD(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}

func withMD(p string) string {
	if HasMD(p) {
		return p
	}
	return p + ".md"
}

// StripMD removes a trailing .md from a normalized path.
func StripMD(p string) string {
	p = parser.NormalizeRelPath(p)
	if HasMD(p) {
		return p[:len(p)-3]
	}
	return p
}

// Stem returns the final path element without its extension.
func Stem(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		return base[:len(base)-len(ext)]
	}
	return base
}

// StemOccurrences counts the notes in paths sharing the stem of p.
func StemOccurrences(paths []string, p string) int {
	stem := strings.ToLower(Stem(p))
	n := 0
	for _, q := range paths {
		if strings.ToLower(Stem(q)) == stem {
			n++
		}
	}
	return n
}
