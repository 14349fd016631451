package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/source"
)

var flagImportReplace bool

var importCmd = &cobra.Command{
	Use:   "import FILE|DIR",
	Short: "Import items from YAML, TOML or JSON budget files",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportReplace, "replace", false, "Replace the whole budget instead of appending")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	progress("  Scanning %s...\n", args[0])

	result, err := source.Load(args[0], func(current, total int) {
		progress("\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
	})
	if err != nil {
		return err
	}
	if result.TotalFiles > 0 {
		progress("\n")
	}

	for _, p := range result.Problems {
		fmt.Fprintf(os.Stderr, "  skipped: %s\n", p)
	}
	if len(result.Items) == 0 {
		fmt.Println("\n  No items found.")
		return nil
	}

	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	if flagImportReplace {
		if err := b.state.Replace(result.Items); err != nil {
			return err
		}
		if err := b.Err(); err != nil {
			return err
		}
		fmt.Printf("  Replaced budget with %d items from %d files\n", len(result.Items), result.ParsedFiles)
		return nil
	}

	added := 0
	for _, it := range result.Items {
		// Imported ids may collide with existing ones; appended items get fresh ids.
		it.ID = ""
		if _, err := b.state.AddItem(it); err != nil {
			return fmt.Errorf("adding %q: %w", it.Name, err)
		}
		added++
	}
	if err := b.Err(); err != nil {
		return err
	}
	fmt.Printf("  Added %d items from %d files (%d total)\n", added, result.ParsedFiles, b.state.Len())
	return nil
}
