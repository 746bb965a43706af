package cmd

import (
	"fmt"

	"github.com/pders01/capstan/internal/archive"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <anchor|journey> <name> <file>",
	Short: "Export an anchor or journey to a portable archive file",
	Long: `Write an anchor or journey to a self-describing archive file that can be
shared or imported into another project. Anchor archives carry the file
content inline, so they restore anywhere.

Examples:
  capstan export anchor before-refactor before-refactor.capstan.json
  capstan export journey release-checklist checklist.capstan.json`,
	Args: cobra.ExactArgs(3),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	kind, name, path := args[0], args[1], args[2]
	switch kind {
	case archive.KindAnchor:
		mgr, err := ws.anchors()
		if err != nil {
			return err
		}
		a, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if err := archive.ExportAnchor(ws.fs, ws.store, a, path); err != nil {
			return err
		}
	case archive.KindJourney:
		j, err := ws.journeys().Load(name)
		if err != nil {
			return err
		}
		if err := archive.ExportJourney(ws.fs, j, path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export kind %q (use anchor or journey)", kind)
	}

	fmt.Printf("✓ Exported %s %s to %s\n", kind, name, path)
	return nil
}
