// Package noteservice owns the in-memory vault: note texts, open editor
// sessions and the metadata state rebuilt from them. All mutation goes
// through a single Service, which persists notes to storage and mirrors the
// metadata into the index.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/bedrock/internal/apperr"
	"github.com/starford/bedrock/internal/checksum"
	"github.com/starford/bedrock/internal/index"
	"github.com/starford/bedrock/internal/metadata"
	"github.com/starford/bedrock/internal/parser"
	"github.com/starford/bedrock/internal/preview"
	"github.com/starford/bedrock/internal/storage"
)

// DefaultAutosaveDelay is the quiet period after the last edit before a
// dirty session is written to disk.
const DefaultAutosaveDelay = 220 * time.Millisecond

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path      string           `json:"path"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Checksum  string           `json:"checksum"`
	Tags      []string         `json:"tags"`
	Aliases   []string         `json:"aliases"`
	Headings  []parser.Heading `json:"headings"`
	Links     []string         `json:"links"`
	Backlinks []string         `json:"backlinks"`
	Dirty     bool             `json:"dirty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenameResult reports a rename and the notes whose links were rewritten.
type RenameResult struct {
	Path      string   `json:"path"`
	Rewritten []string `json:"rewritten"`
}

// Publisher receives note change notifications. kind is one of the
// index.Event* constants, or "" for an edit that only changed metadata.
type Publisher interface {
	PublishNoteEvent(kind, path string)
}

// Option configures a Service.
type Option func(*Service)

// WithAutosaveDelay sets the autosave quiet period.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.autosaveDelay = d
		}
	}
}

// WithPublisher sends note events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithPreview enables image preview prefetching and inline previews.
func WithPreview(l *preview.Loader) Option {
	return func(s *Service) { s.previews = l }
}

// Service coordinates storage, editor sessions, metadata and the index.
type Service struct {
	store         storage.Provider
	db            *index.DB
	logger        *slog.Logger
	builder       *metadata.Builder
	events        Publisher
	previews      *preview.Loader
	autosaveDelay time.Duration
	autosave      *autosaver

	mu       sync.Mutex
	texts    map[string]string
	saved    map[string]string // checksum of the last content on disk
	modTimes map[string]time.Time
	paths    []string
	state    *metadata.State
	sessions map[string]*session
}

// NewService creates a new note service. db may be nil to run without the
// SQLite mirror.
func NewService(store storage.Provider, db *index.DB, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		db:            db,
		logger:        logger,
		builder:       metadata.NewBuilder(),
		autosaveDelay: DefaultAutosaveDelay,
		texts:         make(map[string]string),
		saved:         make(map[string]string),
		modTimes:      make(map[string]time.Time),
		sessions:      make(map[string]*session),
	}
	for _, o := range opts {
		o(s)
	}
	s.autosave = newAutosaver(s.autosaveDelay, s.autosaveFired)
	s.state = s.builder.Build(s.texts, s.paths)
	return s
}

// Load reads every note in the vault, rebuilds metadata and syncs the index.
func (s *Service) Load(_ context.Context) error {
	metas, err := s.store.List("")
	if err != nil {
		return err
	}

	texts := make(map[string]string, len(metas))
	saved := make(map[string]string, len(metas))
	modTimes := make(map[string]time.Time, len(metas))
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			s.logger.Warn("load: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		texts[m.Path] = string(data)
		saved[m.Path] = checksum.Sum(data)
		modTimes[m.Path] = m.UpdatedAt
		paths = append(paths, m.Path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts, s.saved, s.modTimes, s.paths = texts, saved, modTimes, paths
	s.rebuildLocked()
	s.mirrorLocked()
	s.logger.Info("vault loaded", slog.Int("notes", len(paths)))
	return nil
}

// Root returns the vault root.
func (s *Service) Root() string { return s.store.Root() }

// State returns the current metadata state. It must be treated as read-only.
func (s *Service) State() *metadata.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Paths returns the sorted note paths.
func (s *Service) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.paths)
}

// GetNote returns a note with its metadata. Content includes unsaved edits
// from an open session.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.texts[path]; !ok {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	return s.detailLocked(path), nil
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if !storage.IsNote(path) {
		return nil, fmt.Errorf("noteservice: %s is not a markdown note: %w", path, apperr.ErrInvalidPath)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.texts[path]; ok || s.store.Exists(path) {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrAlreadyExists)
	}
	if err := s.writeLocked(path, string(content)); err != nil {
		return nil, err
	}
	s.paths = insertSorted(s.paths, path)
	s.rebuildLocked()
	s.mirrorLocked()
	s.publish(index.EventCreated, path)
	return s.detailLocked(path), nil
}

// UpdateNote replaces a note's content with optimistic concurrency against
// the checksum of the content on disk. An open session takes the new text as
// a system edit.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.texts[path]; !ok {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	if ifMatch != "" && ifMatch != s.saved[path] {
		return nil, fmt.Errorf("noteservice: %s changed on disk: %w", path, apperr.ErrConflict)
	}
	text := string(content)
	if sess := s.sessions[path]; sess != nil {
		sess.replace(text)
		sess.dirty = false
		s.autosave.cancel(path)
	}
	if err := s.writeLocked(path, text); err != nil {
		return nil, err
	}
	s.rebuildLocked()
	s.mirrorLocked()
	s.publish(index.EventUpdated, path)
	return s.detailLocked(path), nil
}

// DeleteNote removes a note from storage, memory and index. An open session
// on it is discarded.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.texts[path]; !ok {
		return fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	if err := s.store.Delete(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.forgetLocked(path)
	s.rebuildLocked()
	s.mirrorLocked()
	s.publish(index.EventDeleted, path)
	return nil
}

// RenameNote moves a note and rewrites wiki links to it across the vault.
// Stem-only links are rewritten only when the old stem was unique.
func (s *Service) RenameNote(_ context.Context, oldPath, newPath string) (*RenameResult, error) {
	if !storage.IsNote(newPath) {
		return nil, fmt.Errorf("noteservice: %s is not a markdown note: %w", newPath, apperr.ErrInvalidPath)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[oldPath]
	if !ok {
		return nil, fmt.Errorf("noteservice: %s: %w", oldPath, apperr.ErrNotFound)
	}
	if oldPath == newPath {
		return &RenameResult{Path: newPath, Rewritten: []string{}}, nil
	}
	if _, exists := s.texts[newPath]; exists || s.store.Exists(newPath) {
		return nil, fmt.Errorf("noteservice: %s: %w", newPath, apperr.ErrAlreadyExists)
	}
	if err := s.flushLocked(oldPath); err != nil {
		return nil, err
	}
	text = s.texts[oldPath]
	includeStem := metadata.IncludeStemMatch(s.paths, oldPath)
	if err := s.store.Move(oldPath, newPath); err != nil {
		return nil, err
	}

	sess := s.sessions[oldPath]
	s.forgetLocked(oldPath)
	s.texts[newPath] = text
	s.saved[newPath] = checksum.Sum([]byte(text))
	s.modTimes[newPath] = time.Now()
	s.paths = insertSorted(s.paths, newPath)
	if sess != nil {
		s.sessions[newPath] = sess
	}

	rewritten := []string{}
	for _, p := range s.paths {
		next, changed := metadata.RewriteWikiLinks(s.texts[p], oldPath, newPath, includeStem)
		if !changed {
			continue
		}
		if sess := s.sessions[p]; sess != nil {
			sess.replace(next)
		}
		if err := s.writeLocked(p, next); err != nil {
			s.logger.Warn("rename: rewrite failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		rewritten = append(rewritten, p)
	}

	s.rebuildLocked()
	s.mirrorLocked()
	s.publish(index.EventDeleted, oldPath)
	s.publish(index.EventCreated, newPath)
	for _, p := range rewritten {
		if p != newPath {
			s.publish(index.EventUpdated, p)
		}
	}
	return &RenameResult{Path: newPath, Rewritten: rewritten}, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	if s.db == nil {
		return nil, 0, errors.New("noteservice: index disabled")
	}
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, errors.New("noteservice: index disabled")
	}
	return s.db.Search(query, limit)
}

// Backlinks returns the notes linking to path.
func (s *Service) Backlinks(_ context.Context, path string) ([]string, error) {
	st := s.State()
	if !slices.Contains(st.Paths, path) {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	return nonNilSlice(st.BacklinksOf(path)), nil
}

// Graph returns the resolved link graph.
func (s *Service) Graph(_ context.Context) metadata.Graph {
	return s.State().Graph()
}

// Close cancels pending autosaves and writes every dirty session.
func (s *Service) Close() error {
	s.autosave.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, p := range s.sortedSessionPathsLocked() {
		if err := s.flushLocked(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeLocked persists text for path and records it as the on-disk state.
func (s *Service) writeLocked(path, text string) error {
	if err := s.store.Write(path, []byte(text)); err != nil {
		return err
	}
	s.texts[path] = text
	s.saved[path] = checksum.Sum([]byte(text))
	s.modTimes[path] = time.Now()
	return nil
}

func (s *Service) forgetLocked(path string) {
	s.autosave.cancel(path)
	delete(s.sessions, path)
	delete(s.texts, path)
	delete(s.saved, path)
	delete(s.modTimes, path)
	if i, ok := slices.BinarySearch(s.paths, path); ok {
		s.paths = slices.Delete(s.paths, i, i+1)
	}
}

func (s *Service) rebuildLocked() {
	s.state = s.builder.Build(s.texts, s.paths)
}

// mirrorLocked syncs the index with the current texts and state.
func (s *Service) mirrorLocked() {
	if s.db == nil {
		return
	}
	docs := make([]index.Document, 0, len(s.paths))
	for _, p := range s.paths {
		docs = append(docs, index.Document{Path: p, Body: s.texts[p], UpdatedAt: s.modTimes[p]})
	}
	if err := index.Sync(s.db, docs, s.state, s.logger); err != nil {
		s.logger.Warn("index sync failed", slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind, path string) {
	if s.events != nil {
		s.events.PublishNoteEvent(kind, path)
	}
}

func (s *Service) detailLocked(path string) *NoteDetail {
	fc := s.state.FileCache[path]
	sess := s.sessions[path]
	return &NoteDetail{
		Path:      path,
		Title:     fc.Title,
		Content:   s.texts[path],
		Checksum:  s.saved[path],
		Tags:      nonNilSlice(fc.Tags),
		Aliases:   nonNilSlice(fc.Aliases),
		Headings:  nonNilSlice(fc.Headings),
		Links:     nonNilSlice(fc.Links),
		Backlinks: nonNilSlice(s.state.BacklinksOf(path)),
		Dirty:     sess != nil && sess.dirty,
		UpdatedAt: s.modTimes[path],
	}
}

func insertSorted(paths []string, p string) []string {
	i, found := slices.BinarySearch(paths, p)
	if found {
		return paths
	}
	return slices.Insert(paths, i, p)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
