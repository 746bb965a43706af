package anchor

import (
	"errors"
	"testing"
	"time"

	"github.com/pders01/capstan/internal/errs"
)

// waitForTree polls the anchor until check passes or the deadline hits.
// Tracking applies events asynchronously, so tests converge instead of
// asserting immediately.
func waitForTree(t *testing.T, m *Manager, name string, check func(files map[string]bool) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := m.Get(name)
		if err == nil {
			files := make(map[string]bool, len(a.Files))
			for p := range a.Files {
				files[p] = true
			}
			if check(files) {
				return
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	a, _ := m.Get(name)
	t.Fatalf("anchor %s never converged; tree: %+v", name, a)
}

func TestAutoTracksChanges(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "v1")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	id, err := m.Auto("work", false)
	if err != nil {
		t.Fatalf("auto failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}

	a, err := m.Get("work")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !a.Tracked || a.TrackingSession != id {
		t.Errorf("expected tracked state persisted, got %+v", a)
	}

	p.CreateFile("added.txt", "new file")
	p.RemoveFile("f.txt")

	waitForTree(t, m, "work", func(files map[string]bool) bool {
		return files["added.txt"] && !files["f.txt"]
	})

	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	// After quiescence the tracked anchor matches what a fresh save sees.
	fresh, err := m.Save("check", "")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	tracked, err := m.Get("work")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !tracked.TreeEquals(fresh) {
		t.Errorf("tracked tree diverged from live state:\ntracked: %+v\nfresh: %+v",
			tracked.Files, fresh.Files)
	}
}

func TestAutoIsNoOpWhenAlreadyTracking(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "content")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	first, err := m.Auto("work", false)
	if err != nil {
		t.Fatalf("auto failed: %v", err)
	}
	second, err := m.Auto("work", false)
	if err != nil {
		t.Fatalf("auto failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the existing session, got %s and %s", first, second)
	}
	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestAutoMissingAnchor(t *testing.T) {
	_, m := newManager(t)
	if _, err := m.Auto("nope", false); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStopClearsTrackedState(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "content")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := m.Auto("work", false); err != nil {
		t.Fatalf("auto failed: %v", err)
	}
	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	a, err := m.Get("work")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if a.Tracked || a.TrackingSession != "" {
		t.Errorf("expected tracked state cleared, got %+v", a)
	}
	if _, active := m.Tracking("work"); active {
		t.Error("expected no active tracking loop after stop")
	}
}

func TestStopGuaranteesNoLaterMutation(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "content")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := m.Auto("work", false); err != nil {
		t.Fatalf("auto failed: %v", err)
	}
	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	before, err := m.Get("work")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	p.CreateFile("after-stop.txt", "must not be tracked")
	time.Sleep(150 * time.Millisecond)

	after, err := m.Get("work")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !before.TreeEquals(after) {
		t.Errorf("anchor mutated after stop: %+v", after.Files)
	}
}

func TestStopOnUntrackedAnchor(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "content")

	if _, err := m.Save("idle", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := m.Stop("idle"); err != nil {
		t.Errorf("expected stop on untracked anchor to be a no-op, got %v", err)
	}
}

func TestDeleteWhileTrackingIsBusy(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "content")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := m.Auto("work", false); err != nil {
		t.Fatalf("auto failed: %v", err)
	}

	if err := m.Delete("work"); !errors.Is(err, errs.ErrBusy) {
		t.Errorf("expected ErrBusy while tracking, got %v", err)
	}

	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := m.Delete("work"); err != nil {
		t.Errorf("expected delete to succeed after stop, got %v", err)
	}
}

func TestRestoreWhileTracking(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "x")

	saved, err := m.Save("work", "")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	baseHash := saved.Files["f.txt"].Hash

	if _, err := m.Auto("work", false); err != nil {
		t.Fatalf("auto failed: %v", err)
	}

	// Mutate and restore immediately, racing the tracking loop. Restore
	// serializes on the per-anchor lock, so it must land cleanly.
	p.CreateFile("f.txt", "y")
	if err := m.Restore("work"); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got := p.ReadFile("f.txt"); got != "x" {
		t.Errorf("expected restored content %q, got %q", "x", got)
	}

	// The loop sees the mutation and the restore's own write as events
	// and converges the anchor back onto the restored content.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := m.Get("work")
		if err == nil && a.Files["f.txt"].Hash == baseHash {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if a, _ := m.Get("work"); a == nil || a.Files["f.txt"].Hash != baseHash {
		t.Error("tracked anchor never converged back onto the restored content")
	}

	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestRestoreBlocksOnInFlightMutation(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "x")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	p.CreateFile("f.txt", "y")

	// Hold the per-anchor lock the way an in-flight event application
	// does; a concurrent restore must wait for it, never interleave.
	lock := m.lockFor("work")
	lock.Lock()

	done := make(chan error, 1)
	go func() { done <- m.Restore("work") }()

	select {
	case err := <-done:
		t.Fatalf("restore proceeded during an in-flight mutation: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	lock.Unlock()
	if err := <-done; err != nil {
		t.Fatalf("restore failed after the mutation drained: %v", err)
	}
	if got := p.ReadFile("f.txt"); got != "x" {
		t.Errorf("expected restored content %q, got %q", "x", got)
	}
}

func TestManualSaveWhileTracking(t *testing.T) {
	p, m := newManager(t)
	p.CreateFile("f.txt", "v1")

	if _, err := m.Save("work", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := m.Auto("work", false); err != nil {
		t.Fatalf("auto failed: %v", err)
	}

	// A manual save during tracking serializes against the event loop and
	// must keep the tracked state on the record.
	p.CreateFile("g.txt", "v1")
	a, err := m.Save("work", "manual save mid-tracking")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !a.Tracked {
		t.Error("manual save dropped the tracked flag")
	}

	waitForTree(t, m, "work", func(files map[string]bool) bool {
		return files["f.txt"] && files["g.txt"]
	})

	if err := m.Stop("work"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}
