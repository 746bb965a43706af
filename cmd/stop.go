package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop tracking an anchor",
	Long: `End the tracking session for the named anchor. Stop returns only after
the background loop has fully drained, so the anchor is not mutated
afterwards. Also clears a stale tracked flag left behind by a crashed
session.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	name := args[0]
	if err := mgr.Stop(name); err != nil {
		return err
	}
	fmt.Printf("✓ Tracking stopped for anchor: %s\n", name)
	return nil
}
