package journey

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/capstan/internal/errs"
	"github.com/pders01/capstan/internal/models"
)

// Recorder opens recording sessions and persists them as journeys on End.
type Recorder struct {
	lib *Library
}

// NewRecorder creates a Recorder saving into lib.
func NewRecorder(lib *Library) *Recorder {
	return &Recorder{lib: lib}
}

// Recording is one in-progress session. Appends are strictly sequential:
// the handle rejects overlapping calls instead of silently reordering them.
type Recording struct {
	ID        string
	Name      string
	createdAt time.Time
	steps     []models.Step

	busy  atomic.Bool
	ended atomic.Bool
}

// Begin opens a recording session under name.
func (r *Recorder) Begin(name string) (*Recording, error) {
	if err := models.ValidateName(name); err != nil {
		return nil, err
	}
	return &Recording{
		ID:        uuid.NewString(),
		Name:      name,
		createdAt: time.Now().UTC(),
	}, nil
}

// Append records one command with its captured output and exit status,
// verbatim. The recorder never interprets what it captures. A call that
// overlaps another Append or End on the same handle fails with
// ErrConcurrentAccess; callers must serialize.
func (rec *Recording) Append(command, output string, exitStatus int) error {
	if !rec.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("recording %s: %w", rec.Name, errs.ErrConcurrentAccess)
	}
	defer rec.busy.Store(false)

	if rec.ended.Load() {
		return fmt.Errorf("recording %s already ended", rec.Name)
	}
	rec.steps = append(rec.steps, models.Step{
		Command:    command,
		Output:     output,
		ExitStatus: exitStatus,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

// Len returns the number of steps recorded so far.
func (rec *Recording) Len() int {
	return len(rec.steps)
}

// End closes the session and persists the journey. The recording handle is
// dead afterwards; the stored journey is immutable.
func (r *Recorder) End(rec *Recording) (*models.Journey, error) {
	if !rec.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("recording %s: %w", rec.Name, errs.ErrConcurrentAccess)
	}
	defer rec.busy.Store(false)

	if !rec.ended.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("recording %s already ended", rec.Name)
	}
	j := &models.Journey{
		Name:      rec.Name,
		CreatedAt: rec.createdAt,
		Steps:     rec.steps,
	}
	if err := r.lib.Save(j); err != nil {
		return nil, err
	}
	return j, nil
}
