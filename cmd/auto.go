package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var autoCmd = &cobra.Command{
	Use:   "auto <name>",
	Short: "Keep an anchor continuously in sync with the project tree",
	Long: `Start tracking: a filesystem watcher observes the project root and the
anchor's file tree is updated in place for every change event, so the
anchor always reflects the latest state.

Tracking runs until interrupted (Ctrl+C) or until 'capstan stop <name>'.
Running auto on an anchor that is already tracking reports the existing
session instead of starting a second watcher.

Example:
  capstan auto work-in-progress`,
	Args: cobra.ExactArgs(1),
	RunE: runAuto,
}

func init() {
	rootCmd.AddCommand(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	name := args[0]
	session, err := mgr.Auto(name, false)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Tracking started for anchor: %s\n", name)
	fmt.Printf("  Session: %s\n", session)
	fmt.Println("  Press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig

	fmt.Println("\nStopping...")
	if err := mgr.Stop(name); err != nil {
		return err
	}
	fmt.Printf("✓ Tracking stopped for anchor: %s\n", name)
	return nil
}
