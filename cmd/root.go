package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/logger"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/store"
)

var (
	flagFrequency string
	flagDB        string
	flagNoStore   bool
	flagQuiet     bool
	flagLogLevel  string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:               "cadence",
	Short:             "Recurring budget ledger",
	Long:              "Track recurring income, expenses and savings, and view them at any frequency.",
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFrequency, "frequency", "f", "", "Display frequency (weekly, fortnightly, monthly, quarterly, annually)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Budget database path (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Work on the default budget in memory, without the database")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func initRuntime(_ *cobra.Command, _ []string) error {
	// A missing .env is fine; real environment variables win.
	_ = godotenv.Load()

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	level := config.LogLevel(cfg)
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger.Init(logger.Options{Level: level, Format: cfg.Logging.Format})
	return nil
}

// displayFrequency resolves the frequency flag, falling back to config.
func displayFrequency() (model.Frequency, error) {
	if flagFrequency != "" {
		return cadence.Parse(flagFrequency)
	}
	f, err := config.Frequency(cfg)
	if err != nil {
		logger.With("cli").WithError(err).Warn("Ignoring configured display frequency")
	}
	return f, nil
}

// frequencyOverride returns the frequency that wins over the one saved in
// the store: --frequency first, then CADENCE_FREQUENCY. Empty means none.
func frequencyOverride() model.Frequency {
	if flagFrequency != "" {
		if f, err := cadence.Parse(flagFrequency); err == nil {
			return f
		}
		return ""
	}
	f, _ := config.FrequencyOverride()
	return f
}

func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	return config.DBPath(cfg)
}

// openedBudget is a loaded budget plus the store it writes back to, if any.
type openedBudget struct {
	state  *budget.State
	store  *store.Store
	detach func()

	// saveErr is the first failed write-back.
	saveErr error
}

// Err returns the first write-back failure since the budget was opened.
func (b *openedBudget) Err() error {
	if b.saveErr != nil {
		return fmt.Errorf("saving budget: %w", b.saveErr)
	}
	return nil
}

// Close stops write-back and closes the store.
func (b *openedBudget) Close() {
	if b.detach != nil {
		b.detach()
	}
	if b.store != nil {
		_ = b.store.Close()
	}
}

// openBudget is the shared loading path used by all budget commands. With
// --no-store it returns the default budget in memory.
func openBudget() (*openedBudget, error) {
	freq, err := displayFrequency()
	if err != nil {
		return nil, err
	}

	if flagNoStore {
		st := budget.NewDefault()
		if err := st.SetFrequency(freq); err != nil {
			return nil, err
		}
		return &openedBudget{state: st}, nil
	}

	path := dbPath()
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	opts := store.LoadOptions{
		Frequency:    freq,
		SeedDefaults: cfg.General.SeedDefaults,
		Override:     frequencyOverride(),
	}
	st, err := db.LoadState(opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log := logger.With("store")
	b := &openedBudget{state: st, store: db}
	b.detach = db.Attach(st, func(err error) {
		log.WithError(err).Error("Failed to save budget")
		if b.saveErr == nil {
			b.saveErr = err
		}
	})
	log.WithField("path", path).WithField("items", st.Len()).Debug("Budget loaded")

	return b, nil
}

// progress writes a progress line to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
