package cmd

import (
	"errors"
	"fmt"

	"github.com/pders01/capstan/internal/errs"
	"github.com/spf13/cobra"
)

var saveDescription string

var saveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Snapshot the project tree as a named anchor",
	Long: `Capture the current project file tree as an anchor.

Saving under an existing name replaces that anchor's snapshot. Content is
stored deduplicated by hash, so unchanged files cost nothing.

Example:
  capstan save before-refactor --description "green build, all tests pass"`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().StringVar(&saveDescription, "description", "", "Optional description")
}

func runSave(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	name := args[0]
	a, err := mgr.Save(name, saveDescription)
	if err != nil {
		var agg *errs.Aggregate
		if a != nil && errors.As(err, &agg) {
			fmt.Printf("⚠ Anchor saved with %d unreadable file(s):\n%v\n", len(agg.Failures), agg)
		} else {
			return err
		}
	}

	fmt.Printf("✓ Anchor saved: %s\n", name)
	fmt.Printf("  Files: %d\n", len(a.Files))
	fmt.Printf("  Size:  %s\n", humanSize(a.ApproxSize()))
	return nil
}
