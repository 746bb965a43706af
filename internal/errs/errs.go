package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the conditions callers branch on.
var (
	// ErrNotFound indicates a named anchor or journey does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentAccess indicates a serialization violation on a
	// recording handle or a tracked anchor mutation.
	ErrConcurrentAccess = errors.New("concurrent access")

	// ErrBusy indicates a manual operation conflicted with an active
	// background tracking loop.
	ErrBusy = errors.New("busy")

	// ErrDataIntegrity indicates a hash collision or a corrupted stored blob.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrWatcherTerminated indicates the background monitor died
	// unexpectedly, e.g. the watched root was removed.
	ErrWatcherTerminated = errors.New("watcher terminated")
)

// PathFailure pairs a path with the error that occurred on it.
type PathFailure struct {
	Path string
	Err  error
}

func (f PathFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f PathFailure) Unwrap() error { return f.Err }

// Aggregate collects per-path failures from a multi-file operation.
// Multi-file operations continue past individual failures and report
// the complete set at the end instead of aborting halfway through.
type Aggregate struct {
	Op       string
	Failures []PathFailure
}

// Add records a failure for a path.
func (a *Aggregate) Add(path string, err error) {
	a.Failures = append(a.Failures, PathFailure{Path: path, Err: err})
}

// Err returns the aggregate as an error, or nil if nothing failed.
func (a *Aggregate) Err() error {
	if len(a.Failures) == 0 {
		return nil
	}
	return a
}

// Error enumerates every failing path and its specific cause.
func (a *Aggregate) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed for %d path(s):", a.Op, len(a.Failures))
	for _, f := range a.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Path, f.Err)
	}
	return b.String()
}

// Is reports whether any collected failure matches target, so callers can
// still use errors.Is against an aggregate.
func (a *Aggregate) Is(target error) bool {
	for _, f := range a.Failures {
		if errors.Is(f.Err, target) {
			return true
		}
	}
	return false
}
