package models

import (
	"fmt"
	"strings"
)

// ValidateName checks that a name is usable as a storage key. Names become
// filenames under the store directory, so path separators and traversal
// elements must never reach the filesystem layer.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid name %q: path separators are not allowed", name)
	}
	return nil
}
