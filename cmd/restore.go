package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Return the project tree to an anchor's state",
	Long: `Rewrite the live project tree to match the named anchor.

Files whose content already matches are left untouched. Files present on
disk but absent from the anchor are deleted. Individual write failures do
not abort the restore: every remaining file is still applied and the full
set of failing paths is reported at the end.

Example:
  capstan restore before-refactor`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	name := args[0]
	if err := mgr.Restore(name); err != nil {
		return err
	}

	fmt.Printf("✓ Restored anchor: %s\n", name)
	return nil
}
