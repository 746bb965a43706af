// Package anchor owns the lifecycle of named project snapshots: save,
// restore, list, diff, and continuous background tracking.
package anchor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pders01/capstan/internal/diff"
	"github.com/pders01/capstan/internal/errs"
	"github.com/pders01/capstan/internal/models"
	"github.com/pders01/capstan/internal/store"
	"github.com/spf13/afero"
)

// Options tune background tracking.
type Options struct {
	Debounce time.Duration
	Buffer   int
}

// Manager composes the blob store, the differ and the watcher into the
// anchor operations. It is an explicit object constructed per store
// location, never process-global, so instances can be tested in isolation.
//
// Operations on one anchor are mutually exclusive: a manual save or restore
// issued while the anchor is tracked blocks until the in-flight event batch
// has been applied.
type Manager struct {
	fs         afero.Fs
	root       string // project root
	anchorsDir string
	skipRel    string // store data dir, relative to root, excluded from scans
	store      *store.Store
	ignore     *store.Ignore
	opts       Options

	mu       sync.Mutex
	trackers map[string]*tracker
	locks    map[string]*sync.Mutex
}

// New creates a Manager rooted at the project directory. anchorsDir holds
// the persisted anchor records; skipRel is the store's own data directory
// relative to root, which snapshots never include.
func New(fsys afero.Fs, root, anchorsDir, skipRel string, st *store.Store, ign *store.Ignore, opts Options) *Manager {
	return &Manager{
		fs:         fsys,
		root:       root,
		anchorsDir: anchorsDir,
		skipRel:    skipRel,
		store:      st,
		ignore:     ign,
		opts:       opts,
		trackers:   make(map[string]*tracker),
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-anchor operation lock, creating it on first use.
func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

// Save captures the full project tree under name, overwriting any prior
// anchor with that name. Re-saving an unchanged tree yields an identical
// file tree; only CreatedAt advances. Files that cannot be read are kept in
// the tree flagged unreadable and reported in the returned aggregate.
func (m *Manager) Save(name, description string) (*models.Anchor, error) {
	if err := models.ValidateName(name); err != nil {
		return nil, err
	}

	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	tree, err := m.store.Tree(m.root, m.skipRel, m.ignore)
	if err != nil {
		return nil, err
	}

	agg := &errs.Aggregate{Op: "save " + name}
	for path, state := range tree {
		if state.Unreadable {
			agg.Add(path, fmt.Errorf("unreadable"))
			continue
		}
		if m.store.Has(state.Hash) {
			continue
		}
		hash, size, err := m.store.Put(filepath.Join(m.root, filepath.FromSlash(path)))
		if err != nil {
			agg.Add(path, err)
			state.Unreadable = true
			state.Hash = ""
			tree[path] = state
			continue
		}
		// The file may have changed between enumeration and storage; the
		// anchor must reference the content that was actually stored, or a
		// later restore would chase a blob that never existed.
		if hash != state.Hash {
			state.Hash = hash
			state.Size = size
			tree[path] = state
		}
	}

	a := &models.Anchor{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Files:       tree,
	}
	if prev, err := m.load(name); err == nil {
		a.Tracked = prev.Tracked
		a.TrackingSession = prev.TrackingSession
	}
	if err := m.persist(a); err != nil {
		return nil, err
	}
	return a, agg.Err()
}

// Restore puts the live tree back into the state recorded by the anchor:
// files whose content already matches are untouched, mismatched or missing
// files are rewritten from stored blobs, and live files absent from the
// anchor are deleted. Individual failures do not abort the operation; the
// full set is reported at the end so the caller knows exactly which paths
// are not in the anchored state.
func (m *Manager) Restore(name string) error {
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	a, err := m.load(name)
	if err != nil {
		return err
	}

	live, err := m.store.Tree(m.root, m.skipRel, m.ignore)
	if err != nil {
		return err
	}

	agg := &errs.Aggregate{Op: "restore " + name}
	for _, path := range store.SortedPaths(a.Files) {
		want := a.Files[path]
		if want.Unreadable {
			continue
		}
		if got, ok := live[path]; ok && got.Hash == want.Hash {
			continue
		}
		if err := m.writeFile(path, want); err != nil {
			agg.Add(path, err)
		}
	}
	for _, path := range store.SortedPaths(live) {
		if _, ok := a.Files[path]; ok {
			continue
		}
		abs := filepath.Join(m.root, filepath.FromSlash(path))
		if err := m.fs.Remove(abs); err != nil {
			agg.Add(path, err)
		}
	}
	return agg.Err()
}

// writeFile rebuilds one file from its stored blob, writing to a temp file
// first so a failed write never leaves a half-written file behind.
func (m *Manager) writeFile(path string, want models.FileState) error {
	data, err := m.store.Get(want.Hash)
	if err != nil {
		return err
	}
	abs := filepath.Join(m.root, filepath.FromSlash(path))
	if err := m.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := afero.TempFile(m.fs, filepath.Dir(abs), ".restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer m.fs.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	if err := m.fs.Chmod(tmpPath, want.Mode.Perm()); err != nil && !errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("failed to chmod: %w", err)
	}
	return m.fs.Rename(tmpPath, abs)
}

// List returns summaries of all anchors, newest first.
func (m *Manager) List() ([]models.AnchorSummary, error) {
	entries, err := afero.ReadDir(m.fs, m.anchorsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list anchors: %w", err)
	}

	var summaries []models.AnchorSummary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		a, err := m.load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		summaries = append(summaries, models.AnchorSummary{
			Name:       a.Name,
			CreatedAt:  a.CreatedAt,
			Tracked:    a.Tracked,
			FileCount:  len(a.Files),
			ApproxSize: a.ApproxSize(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Get loads one anchor by name.
func (m *Manager) Get(name string) (*models.Anchor, error) {
	return m.load(name)
}

// Diff compares the anchor's stored tree against the current live tree.
func (m *Manager) Diff(name string) (models.DiffResult, error) {
	a, err := m.load(name)
	if err != nil {
		return models.DiffResult{}, err
	}
	live, err := m.store.Tree(m.root, m.skipRel, m.ignore)
	if err != nil {
		return models.DiffResult{}, err
	}
	return diff.Trees(a.Files, live), nil
}

// Delete removes an anchor. A tracked anchor must be stopped first.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	_, tracking := m.trackers[name]
	m.mu.Unlock()
	if tracking {
		return fmt.Errorf("anchor %s is tracking: %w", name, errs.ErrBusy)
	}
	if _, err := m.load(name); err != nil {
		return err
	}
	return m.fs.Remove(m.anchorPath(name))
}

// Put persists an externally supplied anchor, e.g. one that was imported.
func (m *Manager) Put(a *models.Anchor) error {
	return m.persist(a)
}

func (m *Manager) anchorPath(name string) string {
	return filepath.Join(m.anchorsDir, name+".json")
}

func (m *Manager) load(name string) (*models.Anchor, error) {
	if err := models.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(m.fs, m.anchorPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("anchor %s: %w", name, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read anchor %s: %w", name, err)
	}
	var a models.Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("anchor %s is corrupted: %w", name, errs.ErrDataIntegrity)
	}
	return &a, nil
}

func (m *Manager) persist(a *models.Anchor) error {
	if err := models.ValidateName(a.Name); err != nil {
		return err
	}
	if err := m.fs.MkdirAll(m.anchorsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create anchors dir: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal anchor %s: %w", a.Name, err)
	}
	tmp, err := afero.TempFile(m.fs, m.anchorsDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp anchor: %w", err)
	}
	tmpPath := tmp.Name()
	defer m.fs.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write anchor %s: %w", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close anchor %s: %w", a.Name, err)
	}
	return m.fs.Rename(tmpPath, m.anchorPath(a.Name))
}
