package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/store"
	"github.com/theirongolddev/cadence/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	var vals tui.SetupValues
	form := tui.NewSetupForm(cfg, &vals)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return fmt.Errorf("setup wizard: %w", err)
	}
	if !vals.Confirmed {
		fmt.Println("  Nothing saved.")
		return nil
	}

	cfg = vals.Apply(cfg)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	// The store remembers the last display frequency, which would otherwise
	// win over the new default.
	if !flagNoStore {
		db, err := store.Open(dbPath())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := db.SaveFrequency(vals.Frequency); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `cadence setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
