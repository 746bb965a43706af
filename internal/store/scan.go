package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pders01/capstan/internal/models"
	"github.com/spf13/afero"
)

// Tree enumerates all files under root, hashing each one, and returns their
// states sorted by path. Paths are relative to root and slash-separated; no
// further normalization happens here, so paths differing only in case or
// trailing separators stay distinct.
//
// The directory named skipDir (the store's own data) and anything matched
// by ign are excluded. Files that cannot be read are still listed, flagged
// Unreadable, so a caller can report them instead of aborting the walk.
func (s *Store) Tree(root, skipDir string, ign *Ignore) (map[string]models.FileState, error) {
	tree := make(map[string]models.FileState)

	err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == skipDir || strings.HasPrefix(rel, skipDir+"/") || ign.Match(rel) {
				return nil
			}
			// A path that cannot even be stat'ed still belongs in the
			// result, flagged, so callers can report it.
			tree[rel] = models.FileState{Path: rel, Unreadable: true}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel == skipDir {
				return filepath.SkipDir
			}
			if ign.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || ign.Match(rel) {
			return nil
		}

		state := models.FileState{
			Path:    rel,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		}
		hash, _, hashErr := s.HashFile(path)
		if hashErr != nil {
			state.Unreadable = true
		} else {
			state.Hash = hash
		}
		tree[rel] = state
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	return tree, nil
}

// SortedPaths returns a tree's paths in lexicographic order, the total order
// used for deterministic diffing and display.
func SortedPaths(tree map[string]models.FileState) []string {
	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
