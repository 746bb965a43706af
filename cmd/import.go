package cmd

import (
	"fmt"

	"github.com/pders01/capstan/internal/archive"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an anchor or journey from an archive file",
	Long: `Read a capstan archive and store its contents. The archive declares its
own kind; anchors bring their blobs along and are restorable immediately.

Example:
  capstan import before-refactor.capstan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	env, err := archive.Read(ws.fs, args[0])
	if err != nil {
		return err
	}

	switch env.Kind {
	case archive.KindAnchor:
		if err := archive.RestoreBlobs(env, ws.store); err != nil {
			return err
		}
		mgr, err := ws.anchors()
		if err != nil {
			return err
		}
		// Imported anchors always start untracked; tracking sessions
		// do not survive export.
		env.Anchor.Tracked = false
		env.Anchor.TrackingSession = ""
		if err := mgr.Put(env.Anchor); err != nil {
			return err
		}
		fmt.Printf("✓ Imported anchor: %s (%d files)\n", env.Anchor.Name, len(env.Anchor.Files))

	case archive.KindJourney:
		if err := ws.journeys().Save(env.Journey); err != nil {
			return err
		}
		fmt.Printf("✓ Imported journey: %s (%d steps)\n", env.Journey.Name, len(env.Journey.Steps))
	}
	return nil
}
