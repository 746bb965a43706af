package cmd

import (
	"fmt"

	"github.com/pders01/capstan/internal/config"
	"github.com/pders01/capstan/internal/journey"
	"github.com/spf13/cobra"
)

var (
	playStrict bool
	playJSON   bool
	playToon   bool
)

var playCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Replay a recorded journey",
	Long: `Execute a journey's commands in their recorded order, one at a time.

When a step's exit status differs from the recording the divergence is
reported; replay continues unless --strict is set, in which case the
first divergence aborts. The stored journey is never modified by replay.

Example:
  capstan play release-checklist
  capstan play release-checklist --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolVar(&playStrict, "strict", false, "Abort on first divergence")
	playCmd.Flags().BoolVar(&playJSON, "json", false, "Output replay report as JSON")
	playCmd.Flags().BoolVar(&playToon, "toon", false, "Output replay report in toon format")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	lib := ws.journeys()

	name := args[0]
	j, err := lib.Load(name)
	if err != nil {
		return err
	}

	strict := playStrict || config.GetStrictReplay()
	player := journey.NewPlayer(journey.ShellExecutor(config.GetReplayShell()), strict)

	fmt.Printf("▶ Replaying journey: %s (%d steps)\n", j.Name, len(j.Steps))
	report, playErr := player.Play(j)

	if playJSON {
		if err := printJSON(report); err != nil {
			return err
		}
		return playErr
	}
	if playToon {
		if err := printToon(report); err != nil {
			return err
		}
		return playErr
	}

	fmt.Printf("  Steps run: %d/%d\n", report.StepsRun, len(j.Steps))
	for _, d := range report.Divergences {
		fmt.Printf("  ⚠ step %d (%s): exited %d, recorded %d\n",
			d.Index, d.Command, d.GotExit, d.WantExit)
	}
	if playErr != nil {
		return playErr
	}
	if len(report.Divergences) == 0 {
		fmt.Println("✓ Replay completed with no divergences")
	} else {
		fmt.Printf("✓ Replay completed with %d divergence(s)\n", len(report.Divergences))
	}
	return nil
}
