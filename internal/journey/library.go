// Package journey records ordered command sequences and replays them
// against the live shell.
package journey

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pders01/capstan/internal/errs"
	"github.com/pders01/capstan/internal/models"
	"github.com/spf13/afero"
)

// Library is the persistence layer for journeys: one JSON record per name.
// It is an explicit object passed in at construction, never global state.
type Library struct {
	fs  afero.Fs
	dir string
}

// NewLibrary creates a Library over dir.
func NewLibrary(fsys afero.Fs, dir string) *Library {
	return &Library{fs: fsys, dir: dir}
}

// Save persists a journey, overwriting any prior journey with its name.
func (l *Library) Save(j *models.Journey) error {
	if err := models.ValidateName(j.Name); err != nil {
		return err
	}
	if err := l.fs.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create journeys dir: %w", err)
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journey %s: %w", j.Name, err)
	}
	if err := afero.WriteFile(l.fs, l.path(j.Name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write journey %s: %w", j.Name, err)
	}
	return nil
}

// Load retrieves a journey by name.
func (l *Library) Load(name string) (*models.Journey, error) {
	if err := models.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, l.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("journey %s: %w", name, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read journey %s: %w", name, err)
	}
	var j models.Journey
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("journey %s is corrupted: %w", name, errs.ErrDataIntegrity)
	}
	return &j, nil
}

// List returns the names of all stored journeys, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list journeys: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored journey.
func (l *Library) Delete(name string) error {
	if err := models.ValidateName(name); err != nil {
		return err
	}
	if err := l.fs.Remove(l.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("journey %s: %w", name, errs.ErrNotFound)
		}
		return fmt.Errorf("failed to delete journey %s: %w", name, err)
	}
	return nil
}

func (l *Library) path(name string) string {
	return filepath.Join(l.dir, name+".json")
}
