package models

// Modified records a path whose content hash changed between two trees.
type Modified struct {
	Path    string `json:"path"`
	OldHash string `json:"old_hash"`
	NewHash string `json:"new_hash"`
}

// DiffResult is the transient comparison of two tree states. It is computed
// on demand and never persisted.
type DiffResult struct {
	Added      []string   `json:"added,omitempty"`
	Removed    []string   `json:"removed,omitempty"`
	Modified   []Modified `json:"modified,omitempty"`
	Unreadable []string   `json:"unreadable,omitempty"`
}

// Empty reports whether the diff contains no changes at all.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 &&
		len(d.Modified) == 0 && len(d.Unreadable) == 0
}
