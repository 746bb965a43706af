package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an anchor",
	Long:  `Remove the named anchor. A tracked anchor must be stopped first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	name := args[0]
	if err := mgr.Delete(name); err != nil {
		return err
	}
	fmt.Printf("✓ Anchor deleted: %s\n", name)
	return nil
}
