package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/logger"
	"github.com/theirongolddev/cadence/internal/report"
	"github.com/theirongolddev/cadence/internal/tui"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Logs on stderr would tear the alt screen.
	logf, err := openTUILog()
	if err != nil {
		return err
	}
	defer func() { _ = logf.Close() }()
	logger.Get().SetOutput(logf)

	var opened *openedBudget
	defer func() {
		if opened != nil {
			opened.Close()
		}
	}()

	opts := tui.Options{
		Config:    cfg,
		Sink:      report.FileSink{Dir: cfg.Export.Dir},
		NeedSetup: !config.Exists(),
		Load: func() (*budget.State, error) {
			b, err := openBudget()
			if err != nil {
				return nil, err
			}
			opened = b
			return b.state, nil
		},
	}
	if !flagNoStore {
		opts.Exports = exportRecorder{&opened}
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	final, err := p.Run()
	if app, ok := final.(tui.App); ok {
		app.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

func openTUILog() (*os.File, error) {
	dir := config.DataDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(dir, "tui.log")
	//nolint:gosec // log path is under the user's data dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening tui log: %w", err)
	}
	return f, nil
}

// exportRecorder forwards to the store once the loader has opened it.
type exportRecorder struct {
	b **openedBudget
}

func (r exportRecorder) RecordExport(path string, itemCount int) error {
	if *r.b == nil || (*r.b).store == nil {
		return nil
	}
	return (*r.b).store.RecordExport(path, itemCount)
}
