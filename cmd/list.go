package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listToon bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all anchors",
	Long: `List all anchors, newest first, with their tracked state and size.

Examples:
  capstan list
  capstan list --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	mgr, err := ws.anchors()
	if err != nil {
		return err
	}

	summaries, err := mgr.List()
	if err != nil {
		return err
	}

	if listJSON {
		return printJSON(summaries)
	}
	if listToon {
		return printToon(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No anchors found")
		return nil
	}

	fmt.Printf("Found %d anchor(s):\n\n", len(summaries))
	for _, s := range summaries {
		marker := " "
		if s.Tracked {
			marker = "●"
		}
		fmt.Printf("  %s %s\n", marker, s.Name)
		fmt.Printf("    Created: %s\n", s.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("    Files:   %d (%s)\n", s.FileCount, humanSize(s.ApproxSize))
		if s.Tracked {
			fmt.Printf("    Tracked: yes\n")
		}
		fmt.Println()
	}
	return nil
}
