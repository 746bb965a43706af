// Package watch monitors a directory tree for filesystem changes and
// forwards them as a consumable event stream with explicit start/stop
// handles.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pders01/capstan/internal/errs"
)

// Kind classifies a change event.
type Kind int

const (
	KindCreated Kind = iota
	KindModified
	KindRemoved
	// KindError is terminal: the stream ends after delivering it.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindModified:
		return "modified"
	case KindRemoved:
		return "removed"
	default:
		return "error"
	}
}

// Event is one observed change. Path is relative to the watched root and
// slash-separated. Err is set only for KindError.
type Event struct {
	Path string
	Kind Kind
	Err  error
}

// Options tune a Watcher. Debounce is the window within which rapid
// repeated changes to one path collapse into a single event; Buffer is the
// stream capacity.
type Options struct {
	Debounce time.Duration
	Buffer   int
}

// Watcher watches one root recursively. A Watcher is single-use: Stop ends
// the stream for good and a new Start requires a new Watcher.
//
// Events for the same path are delivered in the order the filesystem
// reported them. No ordering is guaranteed across unrelated paths.
type Watcher struct {
	root string
	opts Options

	fw     *fsnotify.Watcher
	events chan Event
	stop   chan struct{}
	done   chan struct{}

	stopOnce sync.Once
}

// New creates a Watcher for root. Start must be called to begin observing.
func New(root string, opts Options) *Watcher {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	return &Watcher{
		root:   root,
		opts:   opts,
		events: make(chan Event, opts.Buffer),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins observing and returns the event stream. The stream is
// unbounded in time: it ends only on Stop or on a terminal error such as
// the watched root disappearing.
func (w *Watcher) Start() (<-chan Event, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fw = fw

	if err := w.addRecursive(w.root); err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	return w.events, nil
}

// Stop terminates the stream and blocks until the run loop has exited, so
// no event is delivered after Stop returns.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.fw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// pending is a coalesced, not-yet-delivered event for one path.
type pending struct {
	ev  Event
	due time.Time
}

// run owns all watcher state. Debouncing is done inside this single
// goroutine: each path has at most one pending event, flushed once its
// debounce window elapses.
func (w *Watcher) run() {
	defer close(w.done)
	defer w.fw.Close()

	queue := make(map[string]pending)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	rearm := func() {
		timer.Stop()
		var earliest time.Time
		for _, p := range queue {
			if earliest.IsZero() || p.due.Before(earliest) {
				earliest = p.due
			}
		}
		if !earliest.IsZero() {
			timer.Reset(time.Until(earliest))
		}
	}

	flushDue := func() {
		now := time.Now()
		for path, p := range queue {
			if !p.due.After(now) {
				delete(queue, path)
				w.events <- p.ev
			}
		}
		rearm()
	}

	terminate := func(err error) {
		w.events <- Event{Kind: KindError, Err: err}
		close(w.events)
	}

	for {
		select {
		case <-w.stop:
			close(w.events)
			return

		case <-timer.C:
			flushDue()

		case ferr, ok := <-w.fw.Errors:
			if !ok {
				terminate(errs.ErrWatcherTerminated)
				w.waitStop()
				return
			}
			terminate(fmt.Errorf("%v: %w", ferr, errs.ErrWatcherTerminated))
			w.waitStop()
			return

		case fe, ok := <-w.fw.Events:
			if !ok {
				terminate(errs.ErrWatcherTerminated)
				w.waitStop()
				return
			}
			if fe.Name == w.root && fe.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				terminate(fmt.Errorf("watched root removed: %w", errs.ErrWatcherTerminated))
				w.waitStop()
				return
			}
			if ev, ok := w.translate(fe, queue); ok {
				queue[ev.Path] = pending{ev: ev, due: time.Now().Add(w.opts.Debounce)}
				rearm()
			}
		}
	}
}

// waitStop holds the goroutine alive after a terminal event so Stop still
// has something to synchronize with.
func (w *Watcher) waitStop() {
	<-w.stop
}

// translate maps one fsnotify event onto the stream's event model,
// consulting the pending queue so a create followed by rapid writes still
// surfaces as a single created event.
func (w *Watcher) translate(fe fsnotify.Event, queue map[string]pending) (Event, bool) {
	rel, err := filepath.Rel(w.root, fe.Name)
	if err != nil {
		return Event{}, false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case fe.Op&fsnotify.Create != 0:
		if info, statErr := os.Stat(fe.Name); statErr == nil && info.IsDir() {
			// New directories extend the watch; their contents raise
			// their own events.
			_ = w.addRecursive(fe.Name)
			return Event{}, false
		}
		return Event{Path: rel, Kind: KindCreated}, true

	case fe.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		if p, exists := queue[rel]; exists && p.ev.Kind == KindCreated {
			return Event{Path: rel, Kind: KindCreated}, true
		}
		return Event{Path: rel, Kind: KindModified}, true

	case fe.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return Event{Path: rel, Kind: KindRemoved}, true
	}
	return Event{}, false
}
