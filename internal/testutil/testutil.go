package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempProject is a throwaway project directory for tests.
type TempProject struct {
	Path string
	T    *testing.T
}

// NewTempProject creates a temp project root.
func NewTempProject(t *testing.T) *TempProject {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "capstan-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	// macOS puts temp dirs behind a /var symlink; resolve it so paths
	// reported by watchers match what tests expect.
	if resolved, err := filepath.EvalSymlinks(tmpDir); err == nil {
		tmpDir = resolved
	}

	p := &TempProject{Path: tmpDir, T: t}
	t.Cleanup(p.Cleanup)
	return p
}

// Cleanup removes the project directory.
func (p *TempProject) Cleanup() {
	p.T.Helper()
	os.RemoveAll(p.Path)
}

// CreateFile writes a file (creating parent directories) relative to the
// project root.
func (p *TempProject) CreateFile(name, content string) {
	p.T.Helper()
	path := filepath.Join(p.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.T.Fatalf("failed to create file: %v", err)
	}
}

// RemoveFile deletes a file relative to the project root.
func (p *TempProject) RemoveFile(name string) {
	p.T.Helper()
	if err := os.Remove(filepath.Join(p.Path, name)); err != nil {
		p.T.Fatalf("failed to remove file: %v", err)
	}
}

// ReadFile returns a file's content relative to the project root.
func (p *TempProject) ReadFile(name string) string {
	p.T.Helper()
	data, err := os.ReadFile(filepath.Join(p.Path, name))
	if err != nil {
		p.T.Fatalf("failed to read file: %v", err)
	}
	return string(data)
}

// FileExists reports whether a file exists relative to the project root.
func (p *TempProject) FileExists(name string) bool {
	p.T.Helper()
	_, err := os.Stat(filepath.Join(p.Path, name))
	return err == nil
}
