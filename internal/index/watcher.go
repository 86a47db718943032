package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/bedrock/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven vault change.
// kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, path string)

// Change is one note-level change reported by a Reindexer.
type Change struct {
	Kind string
	Path string
}

// Reindexer absorbs changes made to the vault outside the process. Each
// method reports the resulting kind, or "" when the disk state already
// matched (for example the echo of the service's own write).
type Reindexer interface {
	ReloadNote(path string) (string, error)
	RemoveNote(path string) (string, error)
	Reconcile() ([]Change, error)
}

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and feeds file change
// events into target until ctx is cancelled. It calls cb (if non-nil) after
// each change target reports.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a debounced reconciliation pass that lets the
// target diff its notes against the disk.
func Watch(ctx context.Context, target Reindexer, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	notify := func(kind, rel string) {
		if kind == "" {
			return
		}
		logger.Debug("watcher: applied", slog.String("path", rel), slog.String("op", kind))
		if cb != nil {
			cb(kind, rel)
		}
	}

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			changes, recErr := target.Reconcile()
			if recErr != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", recErr.Error()))
			}
			for _, c := range changes {
				notify(c.Kind, c.Path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list; notes already inside
			// them are loaded.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					loadNewDir(target, vaultRoot, absPath, logger, notify)
					continue
				}
			}

			rel, ok := vaultRel(vaultRoot, absPath)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind, loadErr := target.ReloadNote(rel)
				if loadErr != nil {
					logger.Warn("watcher: reload failed", slog.String("path", rel), slog.String("error", loadErr.Error()))
					continue
				}
				notify(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				kind, delErr := target.RemoveNote(rel)
				if delErr != nil {
					logger.Warn("watcher: remove failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				notify(kind, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path arrives as a separate Create event when it stays
				// within a watched dir; reconciliation catches the rest.
				kind, delErr := target.RemoveNote(rel)
				if delErr != nil {
					logger.Warn("watcher: rename remove failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					notify(kind, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// vaultRel maps an absolute event path to a slash-separated note path,
// rejecting non-notes and anything under a dot entry.
func vaultRel(vaultRoot, absPath string) (string, bool) {
	if !storage.IsNote(absPath) {
		return "", false
	}
	rel, err := filepath.Rel(vaultRoot, absPath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}

// loadNewDir loads any notes found in a newly created directory.
func loadNewDir(target Reindexer, vaultRoot, dirPath string, logger *slog.Logger, notify func(kind, rel string)) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, ok := vaultRel(vaultRoot, path)
		if !ok {
			return nil
		}
		kind, loadErr := target.ReloadNote(rel)
		if loadErr != nil {
			logger.Debug("watcher: load from new dir failed", slog.String("path", rel), slog.String("error", loadErr.Error()))
			return nil
		}
		notify(kind, rel)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
// Dot directories are skipped.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
