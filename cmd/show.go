package cmd

import (
	"fmt"

	"github.com/pders01/capstan/internal/store"
	"github.com/spf13/cobra"
)

var (
	showJSON bool
	showToon bool
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one anchor in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&showToon, "toon", false, "Output in LLM-friendly toon format")
}

func runShow(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	a, err := mgr.Get(args[0])
	if err != nil {
		return err
	}

	if showJSON {
		return printJSON(a)
	}
	if showToon {
		return printToon(a)
	}

	fmt.Printf("Anchor: %s\n", a.Name)
	fmt.Printf("  Created: %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
	if a.Description != "" {
		fmt.Printf("  Notes:   %s\n", truncate(a.Description, 100))
	}
	fmt.Printf("  Tracked: %v\n", a.Tracked)
	if a.TrackingSession != "" {
		fmt.Printf("  Session: %s\n", a.TrackingSession)
	}
	fmt.Printf("  Files:   %d (%s)\n", len(a.Files), humanSize(a.ApproxSize()))

	paths := store.SortedPaths(a.Files)
	shown := len(paths)
	if shown > 10 {
		shown = 10
	}
	fmt.Println()
	for _, p := range paths[:shown] {
		f := a.Files[p]
		if f.Unreadable {
			fmt.Printf("  ? %s (unreadable)\n", p)
			continue
		}
		fmt.Printf("    %s (%s)\n", p, humanSize(f.Size))
	}
	if len(paths) > shown {
		fmt.Printf("    ... and %d more files\n", len(paths)-shown)
	}
	return nil
}
