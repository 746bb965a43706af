package journey

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/pders01/capstan/internal/errs"
	"github.com/pders01/capstan/internal/models"
	"github.com/spf13/afero"
)

func newMemLibrary() *Library {
	return NewLibrary(afero.NewMemMapFs(), "/data/journeys")
}

func TestRecordAndPersist(t *testing.T) {
	lib := newMemLibrary()
	r := NewRecorder(lib)

	rec, err := r.Begin("build-flow")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected a session id")
	}

	if err := rec.Append("echo hi", "hi\n", 0); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := rec.Append("false", "", 1); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	j, err := r.End(rec)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if len(j.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(j.Steps))
	}
	if j.Steps[0].Command != "echo hi" || j.Steps[0].Output != "hi\n" || j.Steps[0].ExitStatus != 0 {
		t.Errorf("unexpected first step: %+v", j.Steps[0])
	}
	if j.Steps[1].Command != "false" || j.Steps[1].ExitStatus != 1 {
		t.Errorf("unexpected second step: %+v", j.Steps[1])
	}

	loaded, err := lib.Load("build-flow")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Steps, j.Steps) {
		t.Errorf("stored steps differ: %+v vs %+v", loaded.Steps, j.Steps)
	}
}

func TestBeginRequiresName(t *testing.T) {
	r := NewRecorder(newMemLibrary())
	if _, err := r.Begin(""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestNamesCannotEscapeLibrary(t *testing.T) {
	lib := newMemLibrary()
	r := NewRecorder(lib)

	for _, name := range []string{"../escape", "a/b", `a\b`, "..", "."} {
		if _, err := r.Begin(name); err == nil {
			t.Errorf("expected begin %q to be rejected", name)
		}
		if err := lib.Save(&models.Journey{Name: name}); err == nil {
			t.Errorf("expected save %q to be rejected", name)
		}
		if _, err := lib.Load(name); err == nil {
			t.Errorf("expected load %q to be rejected", name)
		}
		if err := lib.Delete(name); err == nil {
			t.Errorf("expected delete %q to be rejected", name)
		}
	}
}

func TestAppendAfterEndFails(t *testing.T) {
	r := NewRecorder(newMemLibrary())
	rec, err := r.Begin("done")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := r.End(rec); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if err := rec.Append("ls", "", 0); err == nil {
		t.Error("expected error appending to ended recording")
	}
	if _, err := r.End(rec); err == nil {
		t.Error("expected error ending twice")
	}
}

func TestAppendRejectsConcurrentCalls(t *testing.T) {
	r := NewRecorder(newMemLibrary())
	rec, err := r.Begin("contended")
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				err := rec.Append("true", "", 0)
				if err == nil {
					continue
				}
				if !errors.Is(err, errs.ErrConcurrentAccess) {
					t.Errorf("unexpected append error: %v", err)
					return
				}
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Every call either landed or was rejected, nothing lost or doubled.
	if got := rec.Len() + rejected; got != workers*perWorker {
		t.Errorf("expected %d calls accounted for, got %d", workers*perWorker, got)
	}
}

func TestPlayOrderedAndFaithful(t *testing.T) {
	var ran []string
	exec := func(command string) (string, int, error) {
		ran = append(ran, command)
		return "", 0, nil
	}

	j := &models.Journey{Name: "flow", Steps: []models.Step{
		{Command: "first", ExitStatus: 0},
		{Command: "second", ExitStatus: 0},
		{Command: "third", ExitStatus: 0},
	}}

	report, err := NewPlayer(exec, false).Play(j)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !reflect.DeepEqual(ran, []string{"first", "second", "third"}) {
		t.Errorf("steps ran out of order: %v", ran)
	}
	if report.StepsRun != 3 || len(report.Divergences) != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestPlayRecordsDivergenceAndContinues(t *testing.T) {
	exec := func(command string) (string, int, error) {
		if command == "flaky" {
			return "boom\n", 2, nil
		}
		return "", 0, nil
	}

	j := &models.Journey{Name: "flow", Steps: []models.Step{
		{Command: "ok", ExitStatus: 0},
		{Command: "flaky", ExitStatus: 0},
		{Command: "after", ExitStatus: 0},
	}}

	report, err := NewPlayer(exec, false).Play(j)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if report.StepsRun != 3 {
		t.Errorf("expected replay to continue past divergence, ran %d", report.StepsRun)
	}
	if len(report.Divergences) != 1 {
		t.Fatalf("expected 1 divergence, got %d", len(report.Divergences))
	}
	d := report.Divergences[0]
	if d.Index != 1 || d.Command != "flaky" || d.WantExit != 0 || d.GotExit != 2 {
		t.Errorf("unexpected divergence: %+v", d)
	}
	// Replay never rewrites the recording.
	if j.Steps[1].ExitStatus != 0 || j.Steps[1].Output != "" {
		t.Errorf("journey mutated by replay: %+v", j.Steps[1])
	}
}

func TestPlayStrictAbortsOnDivergence(t *testing.T) {
	exec := func(command string) (string, int, error) {
		if command == "flaky" {
			return "", 1, nil
		}
		return "", 0, nil
	}

	j := &models.Journey{Name: "flow", Steps: []models.Step{
		{Command: "ok", ExitStatus: 0},
		{Command: "flaky", ExitStatus: 0},
		{Command: "never", ExitStatus: 0},
	}}

	report, err := NewPlayer(exec, true).Play(j)
	if err == nil {
		t.Fatal("expected strict replay to abort")
	}
	if report.StepsRun != 2 {
		t.Errorf("expected abort after step 2, ran %d", report.StepsRun)
	}
	if len(report.Divergences) != 1 {
		t.Errorf("expected the aborting divergence in the report, got %+v", report)
	}
}

func TestPlayExecutorErrorAborts(t *testing.T) {
	exec := func(command string) (string, int, error) {
		return "", 0, errors.New("shell unavailable")
	}
	j := &models.Journey{Name: "flow", Steps: []models.Step{{Command: "ls"}}}

	report, err := NewPlayer(exec, false).Play(j)
	if err == nil {
		t.Fatal("expected spawn error to abort replay")
	}
	if report.StepsRun != 0 {
		t.Errorf("expected no steps counted, got %d", report.StepsRun)
	}
}

func TestShellExecutor(t *testing.T) {
	exec := ShellExecutor("/bin/sh")

	out, status, err := exec("echo hi")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if status != 0 || !strings.Contains(out, "hi") {
		t.Errorf("unexpected result: status=%d out=%q", status, out)
	}

	_, status, err = exec("exit 3")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if status != 3 {
		t.Errorf("expected exit status 3, got %d", status)
	}
}

func TestLibraryListAndDelete(t *testing.T) {
	lib := newMemLibrary()

	for _, name := range []string{"zeta", "alpha"} {
		if err := lib.Save(&models.Journey{Name: name}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	names, err := lib.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "zeta"}) {
		t.Errorf("expected sorted names, got %v", names)
	}

	if err := lib.Delete("alpha"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := lib.Load("alpha"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := lib.Delete("alpha"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestLibraryCorruptRecord(t *testing.T) {
	fs := afero.NewMemMapFs()
	lib := NewLibrary(fs, "/data/journeys")
	if err := afero.WriteFile(fs, "/data/journeys/bad.json", []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := lib.Load("bad"); !errors.Is(err, errs.ErrDataIntegrity) {
		t.Errorf("expected ErrDataIntegrity, got %v", err)
	}
}
