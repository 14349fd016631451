// Package tui provides the interactive Bubble Tea dashboard for cadence.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
	"github.com/theirongolddev/cadence/internal/report"
	"github.com/theirongolddev/cadence/internal/tui/components"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// Loader produces the budget state the dashboard works on.
type Loader func() (*budget.State, error)

// ExportRecorder keeps a log of finished exports.
type ExportRecorder interface {
	RecordExport(path string, itemCount int) error
}

// StateLoadedMsg is sent when the loader finishes.
type StateLoadedMsg struct {
	State    *budget.State
	Err      error
	LoadTime time.Duration
}

// StateChangedMsg is sent after each applied mutation.
type StateChangedMsg struct {
	Change budget.Change
}

// ExportDoneMsg is sent when a CSV export completes.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// Options configures NewApp.
type Options struct {
	Load Loader
	// Sink receives CSV exports. Defaults to the configured export dir.
	Sink    report.Sink
	Exports ExportRecorder
	Config  config.Config
	// NeedSetup shows the first-run wizard once the state has loaded.
	NeedSetup bool
	// SaveConfig persists settings changes. Defaults to config.Save.
	SaveConfig func(config.Config) error
	Now        func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	// Data
	state    *budget.State
	loaded   bool
	loadErr  error
	loadTime time.Duration
	load     Loader

	// Collaborators
	sink       report.Sink
	exports    ExportRecorder
	cfg        config.Config
	saveConfig func(config.Config) error
	now        func() time.Time

	// changes carries notifications from the state listener into Update.
	changes     chan budget.Change
	unsubscribe func()
	exporting   bool
	lastExport  string

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	items    itemsState
	settings settingsState

	// Item editor (huh form)
	itemForm *huh.Form
	itemVals *itemFormValues

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	// Transient status line message
	status    string
	statusErr bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5

	tabOverview   = 0
	tabItems      = 1
	tabCategories = 2
	tabSettings   = 3
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	sink := opts.Sink
	if sink == nil {
		sink = report.FileSink{Dir: opts.Config.Export.Dir}
	}
	save := opts.SaveConfig
	if save == nil {
		save = config.Save
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return App{
		load:       opts.Load,
		sink:       sink,
		exports:    opts.Exports,
		cfg:        opts.Config,
		saveConfig: save,
		now:        now,
		needSetup:  opts.NeedSetup,
		changes:    make(chan budget.Change, 16),
		spinner:    sp,
		itemVals:   &itemFormValues{},
		setupVals:  &SetupValues{},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadStateCmd(a.load),
		a.spinner.Tick,
	)
}

// Close detaches the app from its state.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.itemForm != nil {
			a.itemForm = a.itemForm.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.ready() || a.showHelp || a.setupForm != nil || a.itemForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case StateLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.state = msg.State
		changes := a.changes
		a.unsubscribe = a.state.Subscribe(func(c budget.Change, _ pipeline.Summary) {
			select {
			case changes <- c:
			default:
			}
		})

		cmds := []tea.Cmd{waitForChange(a.changes)}
		if a.needSetup {
			a.setupForm = NewSetupForm(a.cfg, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			cmds = append(cmds, a.setupForm.Init())
		}
		return a, tea.Batch(cmds...)

	case StateChangedMsg:
		a.clampItemsCursor()
		return a, waitForChange(a.changes)

	case ExportDoneMsg:
		a.exporting = false
		if msg.Err != nil {
			a.setStatus("Export failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.lastExport = msg.Path
		a.setStatus("Exported to "+msg.Path, false)
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to an open form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.itemForm != nil {
		return a.updateItemForm(msg)
	}

	return a, nil
}

func (a App) ready() bool {
	return a.loaded && a.loadErr == nil && a.state != nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}
	if a.loadErr != nil {
		if key == "q" || key == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}

	// Open forms intercept all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.itemForm != nil {
		return a.updateItemForm(msg)
	}

	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabItems && a.items.searching {
		return a.updateItemsSearch(msg)
	}
	if a.items.confirmID != "" {
		return a.updateConfirmDelete(key)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabItems:
		if next, cmd, handled := a.updateItemsKey(key); handled {
			return next, cmd
		}
	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "f":
		return a.setFrequency(cadence.Next(a.state.Frequency()))
	case "F":
		return a.setFrequency(cadence.Prev(a.state.Frequency()))
	case "a":
		return a.openItemForm(model.LineItem{})
	case "x":
		return a.startExport()
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabItems && !a.items.searching && a.items.cursor > 0 {
			a.items.cursor--
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabItems && !a.items.searching && a.items.cursor < len(a.visibleItems())-1 {
			a.items.cursor++
		}
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) setFrequency(f model.Frequency) (tea.Model, tea.Cmd) {
	if err := a.state.SetFrequency(f); err != nil {
		a.setStatus(err.Error(), true)
		return a, nil
	}
	a.setStatus("Showing "+strings.ToLower(cadence.Label(f))+" amounts", false)
	return a, nil
}

func (a App) startExport() (tea.Model, tea.Cmd) {
	if a.exporting {
		return a, nil
	}
	a.exporting = true
	a.setStatus("Exporting…", false)
	return a, exportCmd(a.sink, a.exports, a.state.Items(), a.now())
}

func (a *App) setStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.loadErr != nil {
		return a.viewLoadError()
	}

	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.itemForm != nil {
		return a.viewItemForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cadence needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ cadence"))
	b.WriteString(subtitleStyle.Render(" · Recurring Budget"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading budget..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoadError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	body := errStyle.Render("Could not load budget") + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(a.loadErr.Error()) + "\n\n" +
		dimStyle.Render("Press q to quit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	section := func(b *strings.Builder, title string, bindings []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		for _, bind := range bindings {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", []struct{ key, desc string }{
		{"o i c s", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Navigate lists"},
		{"g G", "First / Last item"},
	})
	b.WriteString("\n")
	section(&b, "Budget", []struct{ key, desc string }{
		{"f F", "Next / Previous display frequency"},
		{"a", "Add item"},
		{"e Enter", "Edit selected item"},
		{"d", "Delete selected item"},
		{"/", "Search items"},
		{"x", "Export CSV"},
	})
	b.WriteString("\n")
	section(&b, "General", []struct{ key, desc string }{
		{"Esc", "Back / Cancel"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + frequency pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	balanceStyle := lipgloss.NewStyle().Foreground(t.ForBalance(a.state.Unallocated())).Background(t.Surface).Bold(true)

	pill := pillStyle.Render(" ") +
		pillAccent.Render(cadence.Label(a.state.Frequency())) +
		pillStyle.Render(" view │ unallocated ") +
		balanceStyle.Render(cli.FormatMoney(a.state.Unallocated())) +
		pillStyle.Render(" ")
	if a.items.query != "" {
		pill += pillStyle.Render("│ search ") + pillAccent.Render(a.items.query) + pillStyle.Render(" ")
	}

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Frequency: cadence.Label(a.state.Frequency()),
		Items:     a.state.Len(),
		Message:   a.status,
		IsError:   a.statusErr,
	})

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabItems:
		content = a.renderItemsTab(cw, contentH)
	case tabCategories:
		content = a.renderCategoriesTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, filled with background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

func loadStateCmd(load Loader) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		if load == nil {
			return StateLoadedMsg{State: budget.NewDefault(), LoadTime: time.Since(start)}
		}
		st, err := load()
		return StateLoadedMsg{State: st, Err: err, LoadTime: time.Since(start)}
	}
}

// waitForChange blocks until the state listener reports the next change.
func waitForChange(ch <-chan budget.Change) tea.Cmd {
	return func() tea.Msg {
		return StateChangedMsg{Change: <-ch}
	}
}

// exportCmd writes the CSV in the background. items must be a private copy.
func exportCmd(sink report.Sink, rec ExportRecorder, items []model.LineItem, now time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		path, err := report.Export(ctx, sink, items, now)
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		if rec != nil {
			if err := rec.RecordExport(path, len(items)); err != nil {
				return ExportDoneMsg{Path: path, Err: fmt.Errorf("recording export: %w", err)}
			}
		}
		return ExportDoneMsg{Path: path}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same widths as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
