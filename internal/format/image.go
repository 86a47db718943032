package format

import (
	"path"
	"slices"
	"strings"
)

// ImageCache holds already-loaded image bytes as data URIs keyed by the
// absolute slash-separated path returned from ImageCandidates.
type ImageCache interface {
	Lookup(absPath string) (dataURI string, ok bool)
}

// ImageResolver locates local image previews for the note being formatted.
type ImageResolver struct {
	VaultRoot string
	NotePath  string // vault-relative
	Cache     ImageCache
}

// ImageTarget is an image reference found in note text.
type ImageTarget struct {
	Target string `json:"target"`
	Embed  bool   `json:"embed"` // ![[...]] rather than ![alt](...)
}

var imageMIME = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"ico":  "image/x-icon",
	"avif": "image/avif",
	"heic": "image/heic",
	"heif": "image/heif",
}

func imageExt(p string) string {
	ext := path.Ext(strings.ReplaceAll(p, `\`, "/"))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImagePath reports whether p has a previewable image extension.
func IsImagePath(p string) bool {
	_, ok := imageMIME[imageExt(p)]
	return ok
}

// ImageMIME returns the media type for p, or application/octet-stream.
func ImageMIME(p string) string {
	if m, ok := imageMIME[imageExt(p)]; ok {
		return m
	}
	return "application/octet-stream"
}

// IsExternalURL reports whether target points outside the local file system.
func IsExternalURL(target string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	return strings.Contains(t, "://") || strings.HasPrefix(t, "data:")
}

// StripWikiTarget drops the alias and heading parts of a wiki target.
func StripWikiTarget(raw string) string {
	t := strings.TrimSpace(raw)
	t, _, _ = strings.Cut(t, "|")
	t, _, _ = strings.Cut(t, "#")
	return strings.TrimSpace(t)
}

// StripMarkdownImageTarget extracts the path from a markdown link destination,
// dropping angle brackets, titles, fragments and queries.
func StripMarkdownImageTarget(raw string) string {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "<") {
		t = strings.TrimLeft(t, "<")
		t, _, _ = strings.Cut(t, ">")
		t = strings.TrimSpace(t)
	} else if fields := strings.Fields(t); len(fields) > 0 {
		t = fields[0]
	} else {
		t = ""
	}
	t, _, _ = strings.Cut(t, "#")
	t, _, _ = strings.Cut(t, "?")
	return strings.TrimSpace(t)
}

// ImageTargets lists image references in text, embeds first.
func ImageTargets(text string) []ImageTarget {
	var out []ImageTarget
	for _, m := range embedRe.FindAllStringSubmatch(text, -1) {
		out = append(out, ImageTarget{Target: StripWikiTarget(m[1]), Embed: true})
	}
	for _, m := range mdImageRe.FindAllStringSubmatch(text, -1) {
		out = append(out, ImageTarget{Target: StripMarkdownImageTarget(m[2])})
	}
	return out
}

// ImageCandidates returns the absolute paths a local image target may refer
// to: relative to the note's directory first, then the vault root. Targets
// that are external, not images, Windows-absolute, or that escape the vault
// yield nothing.
func ImageCandidates(vaultRoot, notePath, target string) []string {
	if target == "" || !IsImagePath(target) || IsExternalURL(target) {
		return nil
	}
	t := strings.ReplaceAll(strings.TrimSpace(target), `\`, "/")
	if len(t) >= 2 && t[1] == ':' {
		return nil
	}
	vault := collapsePath(vaultRoot)

	var out []string
	if strings.HasPrefix(t, "/") {
		out = append(out, collapsePath(vault+"/"+strings.TrimLeft(t, "/")))
	} else {
		if dir := noteDir(notePath); dir != "" {
			out = append(out, collapsePath(vault+"/"+dir+"/"+t))
		}
		out = append(out, collapsePath(vault+"/"+t))
	}

	out = slices.DeleteFunc(out, func(c string) bool { return !within(vault, c) })
	return slices.Compact(out)
}

func noteDir(notePath string) string {
	p := strings.ReplaceAll(notePath, `\`, "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// collapsePath normalizes separators and resolves . and .. segments.
func collapsePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	c := path.Clean(p)
	if c == "." {
		return ""
	}
	return c
}

func within(base, candidate string) bool {
	base = strings.TrimSuffix(collapsePath(base), "/")
	if base == "" {
		return false
	}
	c := collapsePath(candidate)
	return c == base || strings.HasPrefix(c, base+"/")
}

// previewHTML returns the inline preview markup for target, or "" when there
// is nothing to show yet.
func (r *ImageResolver) previewHTML(target, alt string) string {
	if target == "" || !IsImagePath(target) {
		return ""
	}

	var src string
	if IsExternalURL(target) {
		src = target
	} else {
		if r == nil || r.Cache == nil || r.VaultRoot == "" || r.NotePath == "" {
			return ""
		}
		for _, c := range ImageCandidates(r.VaultRoot, r.NotePath, target) {
			if uri, ok := r.Cache.Lookup(c); ok {
				src = uri
				break
			}
		}
		if src == "" {
			return ""
		}
	}

	return `<span class="` + ClassImageWrap + `" contenteditable="false"><img class="` + ClassImage +
		`" src="` + escapeAttr(src) + `" alt="` + escapeAttr(alt) + `"/></span>`
}
