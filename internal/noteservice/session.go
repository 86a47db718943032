package noteservice

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/starford/bedrock/internal/apperr"
	"github.com/starford/bedrock/internal/editor"
	"github.com/starford/bedrock/internal/format"
	"github.com/starford/bedrock/internal/models"
)

// session is one open note. id survives renames so clients can follow a
// session whose note moved.
type session struct {
	id    string
	snap  *editor.Snapshot
	dirty bool
}

// replace swaps the whole buffer as a system edit, remapping the selection.
func (s *session) replace(text string) {
	if s.snap.Text == text {
		return
	}
	tx := editor.Single(editor.TextChange{Start: 0, End: len(s.snap.Text), Insert: text}, nil, editor.OriginSystem, "replace")
	if _, err := s.snap.Apply(tx); err != nil {
		// A whole-buffer change is always in range; fall back to input.
		s.snap.ReplaceFromInput(text, s.snap.Selection)
	}
}

// Open starts an editing session on path, or returns the existing one.
func (s *Service) Open(_ context.Context, path string) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[path]
	if !ok {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	sess := s.sessions[path]
	if sess == nil {
		sess = &session{id: uuid.NewString(), snap: editor.NewSnapshot(text)}
		s.sessions[path] = sess
	}
	s.prefetchLocked(path, sess.snap.Text)
	return s.sessionStateLocked(path, sess, false), nil
}

// Session returns the current state of an open session with fresh markup.
func (s *Service) Session(_ context.Context, path string) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	return s.sessionStateLocked(path, sess, false), nil
}

// Sessions lists the paths with an open session.
func (s *Service) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSessionPathsLocked()
}

// Input replaces the buffer with text as reported by the host input surface.
func (s *Service) Input(_ context.Context, path, text string, sel editor.Selection) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	out := sess.snap.ReplaceFromInput(text, sel)
	return s.afterEditLocked(path, sess, out), nil
}

// Select moves the selection without touching the text.
func (s *Service) Select(_ context.Context, path string, sel editor.Selection) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	before := sess.snap.Selection
	sess.snap.SetSelection(sel)
	return s.sessionStateLocked(path, sess, sess.snap.Selection != before), nil
}

// Apply validates and applies a caller-built transaction.
func (s *Service) Apply(_ context.Context, path string, tx editor.Transaction) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	return s.applyLocked(path, sess, tx)
}

// Command runs a named markdown command (see editor.CommandNames). A command
// that does not apply returns the unchanged state with Applied false.
func (s *Service) Command(_ context.Context, path, name string) (*models.SessionState, error) {
	cmd, ok := editor.CommandByName(name)
	if !ok {
		return nil, fmt.Errorf("noteservice: unknown command %q: %w", name, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	tx, ok := editor.BuildTransaction(sess.snap, cmd)
	if !ok {
		return s.sessionStateLocked(path, sess, false), nil
	}
	return s.applyLocked(path, sess, tx)
}

// Pair wraps the selection in the auto-pair for open, e.g. "(" or "[".
func (s *Service) Pair(_ context.Context, path, open string) (*models.SessionState, error) {
	cmd, ok := editor.AutoPairFor(open)
	if !ok {
		return nil, fmt.Errorf("noteservice: no pair for %q: %w", open, apperr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	tx, _ := editor.BuildTransaction(sess.snap, cmd)
	return s.applyLocked(path, sess, tx)
}

// Newline handles Enter: continue the current list, task or quote block,
// otherwise insert a plain line break.
func (s *Service) Newline(_ context.Context, path string) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	tx, ok := editor.BuildTransaction(sess.snap, editor.ContinueBlock)
	if !ok {
		tx = editor.InsertNewline(sess.snap)
	}
	return s.applyLocked(path, sess, tx)
}

// Paste inserts clipboard text over the selection.
func (s *Service) Paste(_ context.Context, path, clip string) (*models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(path)
	if err != nil {
		return nil, err
	}
	return s.applyLocked(path, sess, editor.Paste(sess.snap, clip))
}

// CloseSession writes pending edits and ends the session.
func (s *Service) CloseSession(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sessionLocked(path); err != nil {
		return err
	}
	s.autosave.cancel(path)
	if err := s.flushLocked(path); err != nil {
		return err
	}
	delete(s.sessions, path)
	return nil
}

// Flush writes a dirty session immediately.
func (s *Service) Flush(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sessionLocked(path); err != nil {
		return err
	}
	s.autosave.cancel(path)
	return s.flushLocked(path)
}

func (s *Service) sessionLocked(path string) (*session, error) {
	sess := s.sessions[path]
	if sess == nil {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotOpen)
	}
	return sess, nil
}

func (s *Service) sortedSessionPathsLocked() []string {
	return slices.Sorted(maps.Keys(s.sessions))
}

func (s *Service) applyLocked(path string, sess *session, tx editor.Transaction) (*models.SessionState, error) {
	out, err := sess.snap.Apply(tx)
	if err != nil {
		return nil, fmt.Errorf("noteservice: %s: %w", tx.Label, err)
	}
	return s.afterEditLocked(path, sess, out), nil
}

// afterEditLocked propagates a text change: metadata is rebuilt in full, an
// autosave is scheduled and image previews are prefetched.
func (s *Service) afterEditLocked(path string, sess *session, out editor.Outcome) *models.SessionState {
	if out.TextChanged {
		sess.dirty = true
		s.texts[path] = sess.snap.Text
		s.rebuildLocked()
		s.autosave.schedule(path)
		s.prefetchLocked(path, sess.snap.Text)
		s.publish("", path)
	}
	return s.sessionStateLocked(path, sess, out.TextChanged || out.SelectionChanged)
}

func (s *Service) prefetchLocked(path, text string) {
	if s.previews != nil {
		s.previews.Prefetch(s.store.Root(), path, text)
	}
}

// Markup formats path's current text. The caret is passed only when the
// selection is collapsed.
func (s *Service) Markup(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[path]
	if !ok {
		return "", fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	if sess := s.sessions[path]; sess != nil {
		return s.markupLocked(path, sess.snap), nil
	}
	return format.Format(text, s.formatOptions(path)...), nil
}

func (s *Service) markupLocked(path string, snap *editor.Snapshot) string {
	opts := s.formatOptions(path)
	if snap.Selection.IsCursor() {
		opts = append(opts, format.WithCaret(snap.Selection.End))
	}
	return format.Format(snap.Text, opts...)
}

func (s *Service) formatOptions(path string) []format.Option {
	if s.previews == nil {
		return nil
	}
	return []format.Option{format.WithImages(&format.ImageResolver{
		VaultRoot: s.store.Root(),
		NotePath:  path,
		Cache:     s.previews.Cache(),
	})}
}

func (s *Service) sessionStateLocked(path string, sess *session, applied bool) *models.SessionState {
	return &models.SessionState{
		ID:        sess.id,
		Path:      path,
		Text:      sess.snap.Text,
		Selection: sess.snap.Selection,
		Revision:  sess.snap.Revision,
		Markup:    s.markupLocked(path, sess.snap),
		Applied:   applied,
		Dirty:     sess.dirty,
	}
}
