package noteservice

import (
	"log/slog"
	"time"

	"github.com/starford/bedrock/internal/checksum"
	"github.com/starford/bedrock/internal/index"
	"github.com/starford/bedrock/internal/storage"
)

var _ index.Reindexer = (*Service)(nil)

// ReloadNote absorbs an external create or write of path. Content equal to
// what the service last wrote is ignored. A clean open session takes the disk
// text as a system edit; a dirty one keeps its buffer and overwrites the file
// on its next save.
func (s *Service) ReloadNote(path string) (string, error) {
	if !storage.IsNote(path) {
		return "", nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return "", err
	}
	sum := checksum.Sum(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.texts[path]
	if known && s.saved[path] == sum {
		return "", nil
	}
	text := string(data)
	s.saved[path] = sum
	if sess := s.sessions[path]; sess != nil {
		if sess.dirty {
			s.logger.Warn("external change ignored for dirty session", slog.String("path", path))
			return "", nil
		}
		sess.replace(text)
	}
	s.texts[path] = text
	s.modTimes[path] = time.Now()
	if !known {
		s.paths = insertSorted(s.paths, path)
	}
	s.rebuildLocked()
	s.mirrorLocked()
	if known {
		return index.EventUpdated, nil
	}
	return index.EventCreated, nil
}

// RemoveNote absorbs an external delete. An open session on path is dropped.
func (s *Service) RemoveNote(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.texts[path]; !ok || s.store.Exists(path) {
		return "", nil
	}
	s.forgetLocked(path)
	s.rebuildLocked()
	s.mirrorLocked()
	return index.EventDeleted, nil
}

// Reconcile diffs the vault listing against memory and applies every
// difference.
func (s *Service) Reconcile() ([]index.Change, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	disk := make(map[string]struct{}, len(metas))
	var changes []index.Change
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		s.mu.Lock()
		same := s.saved[m.Path] == m.Checksum
		s.mu.Unlock()
		if same {
			continue
		}
		kind, err := s.ReloadNote(m.Path)
		if err != nil {
			s.logger.Warn("reconcile: reload failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if kind != "" {
			changes = append(changes, index.Change{Kind: kind, Path: m.Path})
		}
	}
	for _, p := range s.Paths() {
		if _, ok := disk[p]; ok {
			continue
		}
		kind, err := s.RemoveNote(p)
		if err != nil {
			return changes, err
		}
		if kind != "" {
			changes = append(changes, index.Change{Kind: kind, Path: p})
		}
	}
	return changes, nil
}
