package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	diffJSON bool
	diffToon bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <name>",
	Short: "Compare an anchor against the live project tree",
	Long: `Show which paths were added, removed or modified since the anchor
was saved. Paths that cannot be read right now are listed separately
instead of failing the comparison.

Example:
  capstan diff before-refactor`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output as JSON")
	diffCmd.Flags().BoolVar(&diffToon, "toon", false, "Output in LLM-friendly toon format")
}

func runDiff(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	name := args[0]
	result, err := mgr.Diff(name)
	if err != nil {
		return err
	}

	if diffJSON {
		return printJSON(result)
	}
	if diffToon {
		return printToon(result)
	}

	if result.Empty() {
		fmt.Printf("No changes since anchor %s\n", name)
		return nil
	}

	if len(result.Added) > 0 {
		fmt.Println("Added:")
		for _, p := range result.Added {
			fmt.Printf("  + %s\n", p)
		}
	}
	if len(result.Modified) > 0 {
		fmt.Println("Modified:")
		for _, m := range result.Modified {
			fmt.Printf("  ~ %s\n", m.Path)
		}
	}
	if len(result.Removed) > 0 {
		fmt.Println("Removed:")
		for _, p := range result.Removed {
			fmt.Printf("  - %s\n", p)
		}
	}
	if len(result.Unreadable) > 0 {
		fmt.Println("Unreadable:")
		for _, p := range result.Unreadable {
			fmt.Printf("  ? %s\n", p)
		}
	}
	return nil
}
