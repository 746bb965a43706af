package journey

import (
	"fmt"
	"os/exec"

	"github.com/pders01/capstan/internal/models"
)

// Executor spawns a shell command and reports its captured stdout and exit
// status. It is the player's only coupling to command execution, so tests
// and embedders can substitute their own.
type Executor func(command string) (output string, exitStatus int, err error)

// ShellExecutor returns an Executor running commands through the given
// shell with -c.
func ShellExecutor(shell string) Executor {
	return func(command string) (string, int, error) {
		cmd := exec.Command(shell, "-c", command)
		out, err := cmd.Output()
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				return string(out), exitErr.ExitCode(), nil
			}
			return "", 0, fmt.Errorf("failed to run %q: %w", command, err)
		}
		return string(out), 0, nil
	}
}

// Divergence records a step whose live exit status differed from the
// recording. The stored journey is never modified; divergences live only in
// the replay report.
type Divergence struct {
	Index      int    `json:"index"`
	Command    string `json:"command"`
	WantExit   int    `json:"want_exit"`
	GotExit    int    `json:"got_exit"`
	LiveOutput string `json:"live_output,omitempty"`
}

// Report summarizes one replay.
type Report struct {
	Journey     string       `json:"journey"`
	StepsRun    int          `json:"steps_run"`
	Divergences []Divergence `json:"divergences,omitempty"`
}

// Player replays journeys step by step, in stored order, waiting for each
// command to complete before advancing.
type Player struct {
	exec   Executor
	strict bool
}

// NewPlayer creates a Player. In strict mode the first divergence aborts
// the replay; otherwise divergences are reported and replay continues,
// since replay reproduces a workflow rather than asserting a regression.
func NewPlayer(exec Executor, strict bool) *Player {
	return &Player{exec: exec, strict: strict}
}

// Play executes every step of the journey in order. The returned report is
// valid even when strict mode aborts early. The player adds no
// transactional guarantee beyond ordered, one-at-a-time invocation.
func (p *Player) Play(j *models.Journey) (*Report, error) {
	report := &Report{Journey: j.Name}

	for i, step := range j.Steps {
		output, exitStatus, err := p.exec(step.Command)
		if err != nil {
			return report, err
		}
		report.StepsRun++

		if exitStatus != step.ExitStatus {
			d := Divergence{
				Index:      i,
				Command:    step.Command,
				WantExit:   step.ExitStatus,
				GotExit:    exitStatus,
				LiveOutput: output,
			}
			report.Divergences = append(report.Divergences, d)
			if p.strict {
				return report, fmt.Errorf("step %d (%q) exited %d, recorded %d",
					i, step.Command, exitStatus, step.ExitStatus)
			}
		}
	}
	return report, nil
}
