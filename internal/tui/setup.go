package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// SetupValues is bound to the first-run wizard fields.
type SetupValues struct {
	Frequency model.Frequency
	Theme     string
	ExportDir string
	Confirmed bool
}

// NewSetupForm builds the first-run wizard, prefilled from cfg. The same form
// runs inside the dashboard and standalone for `cadence setup`.
func NewSetupForm(cfg config.Config, vals *SetupValues) *huh.Form {
	freq, _ := config.Frequency(cfg)
	vals.Frequency = freq
	vals.Theme = theme.ByName(cfg.Appearance.Theme).Name
	vals.ExportDir = cfg.Export.Dir
	vals.Confirmed = true

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cadence").
				Description("Track recurring income, expenses and savings,\nshown at whichever frequency suits you."),
			huh.NewSelect[model.Frequency]().
				Title("Show amounts").
				Description("You can switch any time with f / F.").
				Options(frequencyOptions()...).
				Value(&vals.Frequency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewInput().
				Title("Export directory").
				Description("Where CSV exports are written. Empty means the current directory.").
				Value(&vals.ExportDir),
			huh.NewConfirm().
				Title("Save these settings?").
				Affirmative("Save").
				Negative("Skip").
				Value(&vals.Confirmed),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// Apply copies the wizard answers into cfg.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	if v.Frequency != "" {
		cfg.General.DisplayFrequency = string(v.Frequency)
	}
	if theme.Valid(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
	cfg.Export.Dir = strings.TrimSpace(v.ExportDir)
	return cfg
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.needSetup = false
		if a.setupVals.Confirmed {
			a.saveSetupConfig()
		}
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		return a, nil
	}
	return a, cmd
}

// saveSetupConfig applies and persists the wizard answers.
func (a *App) saveSetupConfig() {
	a.cfg = a.setupVals.Apply(a.cfg)
	theme.SetActive(a.cfg.Appearance.Theme)
	a.sink = exportSinkFor(a.sink, a.cfg.Export.Dir)

	if err := a.state.SetFrequency(a.setupVals.Frequency); err != nil {
		a.setStatus(err.Error(), true)
		return
	}
	if err := a.saveConfig(a.cfg); err != nil {
		a.setStatus("Could not save config: "+err.Error(), true)
		return
	}
	a.setStatus("Saved to "+config.Path(), false)
}
