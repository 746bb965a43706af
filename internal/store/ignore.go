package store

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Ignore matches relative slash-separated paths against a set of glob
// patterns. Matched paths are excluded from tree enumeration.
type Ignore struct {
	globs []glob.Glob
}

// NewIgnore compiles the given patterns. Patterns use '/' as separator
// regardless of platform.
func NewIgnore(patterns []string) (*Ignore, error) {
	ig := &Ignore{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile ignore pattern %q: %w", p, err)
		}
		ig.globs = append(ig.globs, g)
	}
	return ig, nil
}

// Match reports whether the relative path matches any ignore pattern.
func (ig *Ignore) Match(rel string) bool {
	if ig == nil {
		return false
	}
	for _, g := range ig.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
