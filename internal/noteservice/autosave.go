package noteservice

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starford/bedrock/internal/index"
)

// autosaver debounces writes per path: every schedule restarts the quiet
// period, and save runs once it elapses.
type autosaver struct {
	delay time.Duration
	save  func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newAutosaver(delay time.Duration, save func(path string)) *autosaver {
	return &autosaver{delay: delay, save: save, timers: make(map[string]*time.Timer)}
}

func (a *autosaver) schedule(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if t := a.timers[path]; t != nil {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		current := a.timers[path] == t
		if current {
			delete(a.timers, path)
		}
		stopped := a.stopped
		a.mu.Unlock()
		if current && !stopped {
			a.save(path)
		}
	})
	a.timers[path] = t
}

func (a *autosaver) cancel(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t := a.timers[path]; t != nil {
		t.Stop()
		delete(a.timers, path)
	}
}

func (a *autosaver) pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

// stop cancels every timer; later schedules are ignored.
func (a *autosaver) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	for p, t := range a.timers {
		t.Stop()
		delete(a.timers, p)
	}
}

func (s *Service) autosaveFired(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(path); err != nil {
		s.logger.Error("autosave failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// flushLocked writes a dirty session to disk and mirrors the index.
func (s *Service) flushLocked(path string) error {
	sess := s.sessions[path]
	if sess == nil || !sess.dirty {
		return nil
	}
	if err := s.writeLocked(path, sess.snap.Text); err != nil {
		return err
	}
	sess.dirty = false
	s.mirrorLocked()
	s.logger.Debug("saved", slog.String("path", path), slog.Uint64("revision", sess.snap.Revision))
	s.publish(index.EventUpdated, path)
	return nil
}
