// Package cmd implements the cadence CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/store"
)

const recentExportsShown = 5

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	freq, err := config.Frequency(cfg)
	fmt.Println("  [General]")
	if err != nil {
		fmt.Printf("    Display frequency: %s (%v)\n", freq, err)
	} else {
		fmt.Printf("    Display frequency: %s\n", freq)
	}
	fmt.Printf("    Seed defaults:     %v\n", cfg.General.SeedDefaults)
	fmt.Printf("    Database:          %s\n", dbPath())
	fmt.Println()

	fmt.Println("  [Export]")
	if cfg.Export.Dir != "" {
		fmt.Printf("    Directory: %s\n", cfg.Export.Dir)
	} else {
		fmt.Println("    Directory: current directory")
	}
	if cfg.Export.Schedule != "" {
		fmt.Printf("    Schedule:  %s\n", cfg.Export.Schedule)
	} else {
		fmt.Println("    Schedule:  off")
	}
	fmt.Println()

	printStoreInfo()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", config.ServerAddr(cfg))
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", config.LogLevel(cfg))
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Println()

	fmt.Println("  Run `cadence setup` to reconfigure.")
	return nil
}

// printStoreInfo shows what the database holds. A missing database is not
// created just to be described.
func printStoreInfo() {
	if flagNoStore {
		return
	}
	path := dbPath()
	if _, err := os.Stat(path); err != nil {
		return
	}

	db, err := store.Open(path)
	if err != nil {
		fmt.Printf("  [Database]\n    Error: %v\n\n", err)
		return
	}
	defer func() { _ = db.Close() }()

	fmt.Println("  [Database]")
	if n, err := db.ItemCount(); err == nil {
		fmt.Printf("    Items:   %d\n", n)
	}
	recs, err := db.RecentExports(recentExportsShown)
	switch {
	case err != nil:
		fmt.Printf("    Exports: %v\n", err)
	case len(recs) == 0:
		fmt.Println("    Exports: none yet")
	default:
		fmt.Println("    Recent exports:")
		for _, r := range recs {
			fmt.Printf("      %s  %3d items  %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"), r.ItemCount, r.Path)
		}
	}
	fmt.Println()
}
