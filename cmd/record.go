package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pders01/capstan/internal/config"
	"github.com/pders01/capstan/internal/journey"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <name>",
	Short: "Record a command journey",
	Long: `Start a recording session. Every line you enter is executed through the
configured shell and captured with its output and exit status, in order.

Recording ends on end-of-input (Ctrl+D) or when you enter 'stop' or
'exit'. It never ends silently on a timeout.

Example:
  capstan record release-checklist`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	recorder := journey.NewRecorder(ws.journeys())

	name := args[0]
	rec, err := recorder.Begin(name)
	if err != nil {
		return err
	}

	execute := journey.ShellExecutor(config.GetReplayShell())

	fmt.Printf("● Recording journey: %s\n", name)
	fmt.Println("  Press Ctrl+D (or type 'stop') to finish")

	// Commands arrive through the command's input stream, not a live
	// terminal handle, so recording stays scriptable and testable.
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Print("$ ")
		if !scanner.Scan() {
			fmt.Println("\n✓ Recording stopped (end of input)")
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "stop" || line == "exit" {
			fmt.Println("✓ Recording stopped")
			break
		}

		output, exitStatus, err := execute(line)
		if err != nil {
			fmt.Printf("! %v\n", err)
			continue
		}
		fmt.Print(output)
		if err := rec.Append(line, output, exitStatus); err != nil {
			return err
		}
		fmt.Printf("  [recorded %d: exit %d]\n", rec.Len(), exitStatus)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	j, err := recorder.End(rec)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Journey saved: %s (%d steps)\n", j.Name, len(j.Steps))
	return nil
}
