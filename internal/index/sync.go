package index

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/starford/bedrock/internal/checksum"
	"github.com/starford/bedrock/internal/metadata"
)

// Document is one note body handed to Sync.
type Document struct {
	Path      string
	Body      string
	UpdatedAt time.Time
}

// LinksFor returns the outgoing links of path recorded in state: resolved
// targets first, then raw unresolved links, each group sorted.
func LinksFor(state *metadata.State, path string) []LinkRow {
	var out []LinkRow
	resolved := state.ResolvedLinks[path]
	for _, t := range slices.Sorted(maps.Keys(resolved)) {
		out = append(out, LinkRow{Source: path, Target: t, Resolved: true, Count: resolved[t]})
	}
	unresolved := state.UnresolvedLinks[path]
	for _, t := range slices.Sorted(maps.Keys(unresolved)) {
		out = append(out, LinkRow{Source: path, Target: t, Count: unresolved[t]})
	}
	return out
}

// Sync brings the index up to date with docs and the metadata state built
// from them:
//   - new/changed notes are upserted with their links
//   - unchanged notes whose link resolution moved get their links replaced
//   - notes absent from docs are deleted from the index
func Sync(db *DB, docs []Document, state *metadata.State, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}
	stored, err := db.AllLinks()
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		present[d.Path] = struct{}{}
		links := LinksFor(state, d.Path)
		cs := checksum.Sum([]byte(d.Body))

		if checksums[d.Path] == cs {
			if slices.Equal(stored[d.Path], links) {
				continue
			}
			if err := db.SetLinks(d.Path, links); err != nil {
				logger.Warn("sync: relink failed", slog.String("path", d.Path), slog.String("error", err.Error()))
			}
			continue
		}

		fc := state.FileCache[d.Path]
		row := NoteRow{
			Path:      d.Path,
			Title:     fc.Title,
			Checksum:  cs,
			Tags:      fc.Tags,
			Aliases:   fc.Aliases,
			UpdatedAt: d.UpdatedAt,
		}
		if err := db.UpsertNote(row, d.Body, links); err != nil {
			logger.Warn("sync: index failed", slog.String("path", d.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", d.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := present[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
