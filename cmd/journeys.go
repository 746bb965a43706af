package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	journeysJSON bool
	journeysToon bool
)

var journeysCmd = &cobra.Command{
	Use:   "journeys",
	Short: "List recorded journeys",
	RunE:  runJourneys,
}

var journeysDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a recorded journey",
	Args:  cobra.ExactArgs(1),
	RunE:  runJourneysDelete,
}

func init() {
	rootCmd.AddCommand(journeysCmd)
	journeysCmd.AddCommand(journeysDeleteCmd)

	journeysCmd.Flags().BoolVar(&journeysJSON, "json", false, "Output as JSON")
	journeysCmd.Flags().BoolVar(&journeysToon, "toon", false, "Output in LLM-friendly toon format")
}

func runJourneys(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	lib := ws.journeys()

	names, err := lib.List()
	if err != nil {
		return err
	}

	if journeysJSON {
		return printJSON(names)
	}
	if journeysToon {
		return printToon(names)
	}

	if len(names) == 0 {
		fmt.Println("No journeys found")
		return nil
	}
	fmt.Printf("Found %d journey(s):\n\n", len(names))
	for _, name := range names {
		j, err := lib.Load(name)
		if err != nil {
			fmt.Printf("  %s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %s\n", j.Name)
		fmt.Printf("    Created: %s\n", j.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("    Steps:   %d\n", len(j.Steps))
	}
	return nil
}

func runJourneysDelete(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if err := ws.journeys().Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("✓ Journey deleted: %s\n", args[0])
	return nil
}
