package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pders01/capstan/internal/anchor"
	"github.com/pders01/capstan/internal/config"
	"github.com/pders01/capstan/internal/journey"
	"github.com/pders01/capstan/internal/store"
	"github.com/spf13/afero"
)

// workspace wires the per-invocation dependencies: the project root is the
// working directory, everything durable lives under the store dir inside it.
type workspace struct {
	fs      afero.Fs
	root    string
	dataDir string
	store   *store.Store
}

func openWorkspace() (*workspace, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	fsys := afero.NewOsFs()
	dataDir := filepath.Join(root, config.GetStoreDir())
	return &workspace{
		fs:      fsys,
		root:    root,
		dataDir: dataDir,
		store:   store.New(fsys, filepath.Join(dataDir, "objects")),
	}, nil
}

func (w *workspace) anchors() (*anchor.Manager, error) {
	ign, err := store.NewIgnore(config.GetIgnorePatterns())
	if err != nil {
		return nil, err
	}
	return anchor.New(
		w.fs,
		w.root,
		filepath.Join(w.dataDir, "anchors"),
		config.GetStoreDir(),
		w.store,
		ign,
		anchor.Options{
			Debounce: config.GetDebounceWindow(),
			Buffer:   config.GetWatchBuffer(),
		},
	), nil
}

func (w *workspace) journeys() *journey.Library {
	return journey.NewLibrary(w.fs, filepath.Join(w.dataDir, "journeys"))
}
