package anchor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pders01/capstan/internal/watch"
)

// tracker is one background tracking loop. At most one exists per anchor
// name at a time.
type tracker struct {
	id      string
	watcher *watch.Watcher
	done    chan struct{}
}

// Auto transitions the named anchor into tracked state: a watcher observes
// the project root and a background loop re-hashes each changed path and
// updates the anchor's file tree in watcher-delivery order. Auto returns as
// soon as tracking has started; if foreground is set it instead occupies
// the caller until Stop is invoked from elsewhere.
//
// Calling Auto on an anchor that is already tracking is a no-op reporting
// the existing session handle, so no duplicate watcher can double-apply
// events.
func (m *Manager) Auto(name string, foreground bool) (string, error) {
	m.mu.Lock()
	if t, ok := m.trackers[name]; ok {
		m.mu.Unlock()
		return t.id, nil
	}
	m.mu.Unlock()

	a, err := m.load(name)
	if err != nil {
		return "", err
	}

	w := watch.New(m.root, watch.Options{Debounce: m.opts.Debounce, Buffer: m.opts.Buffer})
	events, err := w.Start()
	if err != nil {
		return "", err
	}

	t := &tracker{
		id:      uuid.NewString(),
		watcher: w,
		done:    make(chan struct{}),
	}

	a.Tracked = true
	a.TrackingSession = t.id
	if err := m.persist(a); err != nil {
		w.Stop()
		return "", err
	}

	m.mu.Lock()
	if existing, ok := m.trackers[name]; ok {
		// Lost the race to another Auto call.
		m.mu.Unlock()
		w.Stop()
		return existing.id, nil
	}
	m.trackers[name] = t
	m.mu.Unlock()

	go m.track(name, t, events)

	if foreground {
		<-t.done
	}
	return t.id, nil
}

// Stop ends tracking for the named anchor. It blocks until the background
// loop has fully drained and exited, guaranteeing the anchor is not mutated
// after Stop returns.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	t, ok := m.trackers[name]
	m.mu.Unlock()

	if ok {
		t.watcher.Stop()
		<-t.done
		m.mu.Lock()
		delete(m.trackers, name)
		m.mu.Unlock()
	}

	a, err := m.load(name)
	if err != nil {
		return err
	}
	if !a.Tracked && !ok {
		return nil
	}
	a.Tracked = false
	a.TrackingSession = ""
	return m.persist(a)
}

// Tracking reports whether a tracking loop is active for name, and its
// session handle.
func (m *Manager) Tracking(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trackers[name]
	if !ok {
		return "", false
	}
	return t.id, true
}

// track consumes the event stream until it closes. Every event is applied
// under the per-anchor lock, so manual operations never observe a
// half-applied batch.
func (m *Manager) track(name string, t *tracker, events <-chan watch.Event) {
	defer close(t.done)

	for ev := range events {
		if ev.Kind == watch.KindError {
			fmt.Fprintf(os.Stderr, "tracking %s stopped: %v\n", name, ev.Err)
			t.watcher.Stop()
			m.mu.Lock()
			delete(m.trackers, name)
			m.mu.Unlock()
			lock := m.lockFor(name)
			lock.Lock()
			if a, err := m.load(name); err == nil {
				a.Tracked = false
				a.TrackingSession = ""
				_ = m.persist(a)
			}
			lock.Unlock()
			return
		}
		if m.internalPath(ev.Path) {
			continue
		}

		lock := m.lockFor(name)
		lock.Lock()
		if err := m.applyEvent(name, ev); err != nil {
			fmt.Fprintf(os.Stderr, "tracking %s: %s: %v\n", name, ev.Path, err)
		}
		lock.Unlock()
	}
}

// internalPath filters out the store's own data directory and ignored
// paths; blob and anchor writes must not feed back into tracking.
func (m *Manager) internalPath(rel string) bool {
	if rel == m.skipRel || strings.HasPrefix(rel, m.skipRel+"/") {
		return true
	}
	return m.ignore.Match(rel)
}

// applyEvent re-hashes a single changed path and updates the anchor's file
// tree entry in place. The anchor is reloaded from disk under the lock so a
// concurrent manual save is never overwritten with stale state.
func (m *Manager) applyEvent(name string, ev watch.Event) error {
	a, err := m.load(name)
	if err != nil {
		return err
	}

	switch ev.Kind {
	case watch.KindRemoved:
		delete(a.Files, ev.Path)

	case watch.KindCreated, watch.KindModified:
		abs := filepath.Join(m.root, filepath.FromSlash(ev.Path))
		info, err := m.fs.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				// Vanished between the event and now.
				delete(a.Files, ev.Path)
				break
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		hash, size, err := m.store.Put(abs)
		if err != nil {
			return err
		}
		state := a.Files[ev.Path]
		state.Path = ev.Path
		state.Hash = hash
		state.Size = size
		state.Mode = info.Mode()
		state.ModTime = info.ModTime()
		state.Unreadable = false
		a.Files[ev.Path] = state
	}

	return m.persist(a)
}
