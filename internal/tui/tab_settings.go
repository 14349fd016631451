package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/robfig/cron/v3"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/report"
	"github.com/theirongolddev/cadence/internal/tui/components"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

const (
	settingsFieldFrequency = iota
	settingsFieldTheme
	settingsFieldExportDir
	settingsFieldSchedule
	settingsFieldSeed
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()

	switch a.settings.cursor {
	case settingsFieldFrequency:
		ti.Placeholder = "weekly, fortnightly, monthly, quarterly, annually"
		ti.SetValue(string(a.state.Frequency()))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldExportDir:
		ti.Placeholder = "(current directory)"
		ti.SetValue(a.cfg.Export.Dir)
	case settingsFieldSchedule:
		ti.Placeholder = "cron spec, e.g. 0 9 1 * * (empty disables)"
		ti.SetValue(a.cfg.Export.Schedule)
	case settingsFieldSeed:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.cfg.General.SeedDefaults))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited value, applies it to the running app
// and persists the config.
func (a *App) settingsSave() {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldFrequency:
		f, err := cadence.Parse(val)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		if err := a.state.SetFrequency(f); err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.General.DisplayFrequency = string(f)
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldExportDir:
		cfg.Export.Dir = val
		a.sink = exportSinkFor(a.sink, val)
	case settingsFieldSchedule:
		if val != "" {
			if _, err := cron.ParseStandard(val); err != nil {
				a.settings.saveErr = fmt.Errorf("invalid schedule: %w", err)
				return
			}
		}
		cfg.Export.Schedule = val
	case settingsFieldSeed:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = errors.New("seed defaults must be true or false")
			return
		}
		cfg.General.SeedDefaults = b
	}

	a.cfg = cfg
	a.settings.saveErr = a.saveConfig(cfg)
}

// exportSinkFor points a file sink at dir. Other sinks are left alone.
func exportSinkFor(current report.Sink, dir string) report.Sink {
	if _, ok := current.(report.FileSink); ok {
		return report.FileSink{Dir: dir}
	}
	return current
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	orUnset := func(s, unset string) string {
		if s == "" {
			return unset
		}
		return s
	}

	fields := []struct{ label, value string }{
		{"Display Frequency", cadence.Label(a.state.Frequency())},
		{"Theme", cfg.Appearance.Theme},
		{"Export Directory", orUnset(cfg.Export.Dir, "(current directory)")},
		{"Export Schedule", orUnset(cfg.Export.Schedule, "(off)")},
		{"Seed Defaults", strconv.FormatBool(cfg.General.SeedDefaults)},
	}

	innerW := components.CardInnerWidth(cw)

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	lastExport := orUnset(a.lastExport, "(none this session)")

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Config file:  ") + valueStyle.Render(config.Path()) + "\n")
	infoBody.WriteString(labelStyle.Render("Database:     ") + valueStyle.Render(config.DBPath(cfg)) + "\n")
	infoBody.WriteString(labelStyle.Render("Items:        ") + valueStyle.Render(cli.FormatNumber(int64(a.state.Len()))) + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:    ") + valueStyle.Render(fmt.Sprintf("%.0fms", float64(a.loadTime.Microseconds())/1000)) + "\n")
	infoBody.WriteString(labelStyle.Render("Last export:  ") + valueStyle.Render(lastExport))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))

	return b.String()
}
