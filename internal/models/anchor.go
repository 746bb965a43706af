package models

import (
	"io/fs"
	"time"
)

// FileState describes one file in an anchored tree: its content hash plus
// the metadata captured at snapshot time.
type FileState struct {
	Path       string      `json:"path"`
	Hash       string      `json:"hash"`
	Size       int64       `json:"size"`
	Mode       fs.FileMode `json:"mode"`
	ModTime    time.Time   `json:"mod_time"`
	Unreadable bool        `json:"unreadable,omitempty"`
}

// Anchor is a named, persisted snapshot of a project's file tree,
// optionally kept continuously current via background tracking.
//
// Files maps relative path to FileState. While Tracked is set the map is
// mutated only by the owning tracking loop, in watcher-delivery order;
// otherwise it is replaced wholesale by a save.
type Anchor struct {
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	Files           map[string]FileState `json:"files"`
	Tracked         bool                 `json:"tracked"`
	TrackingSession string               `json:"tracking_session,omitempty"`
}

// ApproxSize returns the summed size of all files in the anchor.
func (a *Anchor) ApproxSize() int64 {
	var total int64
	for _, f := range a.Files {
		total += f.Size
	}
	return total
}

// TreeEquals reports whether two anchors reference the same tree content,
// comparing paths and hashes only (metadata such as mtime is ignored).
func (a *Anchor) TreeEquals(other *Anchor) bool {
	if len(a.Files) != len(other.Files) {
		return false
	}
	for path, f := range a.Files {
		o, ok := other.Files[path]
		if !ok || o.Hash != f.Hash {
			return false
		}
	}
	return true
}

// AnchorSummary is the list-view projection of an anchor.
type AnchorSummary struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Tracked    bool      `json:"tracked"`
	FileCount  int       `json:"file_count"`
	ApproxSize int64     `json:"approx_size"`
}
