// Package diff computes the minimal set of changed paths between two
// file-tree states.
package diff

import (
	"github.com/pders01/capstan/internal/models"
	"github.com/pders01/capstan/internal/store"
)

// Trees compares two trees by path and content hash using a sorted merge
// over the combined path set. Added means present only in new, Removed
// present only in old, Modified present in both with differing hashes.
// Entries flagged unreadable on either side are reported separately and
// excluded from the other categories.
func Trees(old, new map[string]models.FileState) models.DiffResult {
	var result models.DiffResult

	oldPaths := store.SortedPaths(old)
	newPaths := store.SortedPaths(new)

	unreadable := make(map[string]bool)
	mark := func(tree map[string]models.FileState, paths []string) {
		for _, p := range paths {
			if tree[p].Unreadable && !unreadable[p] {
				unreadable[p] = true
				result.Unreadable = append(result.Unreadable, p)
			}
		}
	}
	mark(old, oldPaths)
	mark(new, newPaths)

	i, j := 0, 0
	for i < len(oldPaths) && j < len(newPaths) {
		switch {
		case oldPaths[i] < newPaths[j]:
			if !unreadable[oldPaths[i]] {
				result.Removed = append(result.Removed, oldPaths[i])
			}
			i++
		case oldPaths[i] > newPaths[j]:
			if !unreadable[newPaths[j]] {
				result.Added = append(result.Added, newPaths[j])
			}
			j++
		default:
			p := oldPaths[i]
			if !unreadable[p] && old[p].Hash != new[p].Hash {
				result.Modified = append(result.Modified, models.Modified{
					Path:    p,
					OldHash: old[p].Hash,
					NewHash: new[p].Hash,
				})
			}
			i++
			j++
		}
	}
	for ; i < len(oldPaths); i++ {
		if !unreadable[oldPaths[i]] {
			result.Removed = append(result.Removed, oldPaths[i])
		}
	}
	for ; j < len(newPaths); j++ {
		if !unreadable[newPaths[j]] {
			result.Added = append(result.Added, newPaths[j])
		}
	}

	return result
}
