package tui

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/report"
)

type recorder struct {
	paths []string
	items []int
}

func (r *recorder) RecordExport(path string, n int) error {
	r.paths = append(r.paths, path)
	r.items = append(r.items, n)
	return nil
}

var fixedNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, saved *[]config.Config) App {
	t.Helper()
	return NewApp(Options{
		Config: config.DefaultConfig(),
		Sink:   report.FileSink{Dir: t.TempDir()},
		SaveConfig: func(c config.Config) error {
			if saved != nil {
				*saved = append(*saved, c)
			}
			return nil
		},
		Now: func() time.Time { return fixedNow },
	})
}

func loadedApp(t *testing.T) App {
	t.Helper()
	return load(t, newTestApp(t, nil), budget.NewDefault())
}

func load(t *testing.T, a App, st *budget.State) App {
	t.Helper()
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = m.Update(StateLoadedMsg{State: st})
	return m.(App)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(a App, keys ...string) App {
	for _, k := range keys {
		m, _ := a.Update(keyMsg(k))
		a = m.(App)
	}
	return a
}

func typeText(a App, s string) App {
	for _, r := range s {
		a = press(a, string(r))
	}
	return a
}

func TestFrequencyKeysCycle(t *testing.T) {
	a := loadedApp(t)

	a = press(a, "f")
	if got := a.state.Frequency(); got != model.Quarterly {
		t.Fatalf("after f: %s, want quarterly", got)
	}
	if !strings.Contains(a.status, "quarterly") {
		t.Errorf("status = %q", a.status)
	}

	a = press(a, "F", "F")
	if got := a.state.Frequency(); got != model.Fortnightly {
		t.Fatalf("after F F: %s, want fortnightly", got)
	}
}

func TestTabShortcuts(t *testing.T) {
	a := loadedApp(t)
	for key, want := range map[string]int{"i": tabItems, "c": tabCategories, "s": tabSettings, "o": tabOverview} {
		a = press(a, key)
		if a.activeTab != want {
			t.Errorf("key %q -> tab %d, want %d", key, a.activeTab, want)
		}
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	a := press(loadedApp(t), "i")
	first, _ := a.selectedItem()

	a = press(a, "d", "n")
	if a.state.Len() != 25 {
		t.Fatalf("declined delete removed an item")
	}

	a = press(a, "d", "y")
	if a.state.Len() != 24 {
		t.Fatalf("Len = %d, want 24", a.state.Len())
	}
	if _, ok := a.state.Item(first.ID); ok {
		t.Fatal("confirmed item still present")
	}

	select {
	case c := <-a.changes:
		if c.Kind != budget.ChangeRemove || c.ItemID != first.ID {
			t.Errorf("change = %+v", c)
		}
	default:
		t.Fatal("listener did not report the removal")
	}
}

func TestDeletingLastItemClampsCursor(t *testing.T) {
	a := press(loadedApp(t), "i", "G")
	if a.items.cursor != 24 {
		t.Fatalf("cursor = %d, want 24", a.items.cursor)
	}
	a = press(a, "d", "y")
	if a.items.cursor != 23 {
		t.Fatalf("cursor = %d, want 23", a.items.cursor)
	}
}

func TestSearchFiltersItems(t *testing.T) {
	a := press(loadedApp(t), "i", "/")
	a = typeText(a, "fund")
	a = press(a, "enter")

	if a.items.query != "fund" {
		t.Fatalf("query = %q", a.items.query)
	}
	got := a.visibleItems()
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}

	a = press(a, "esc")
	if a.items.query != "" || len(a.visibleItems()) != 25 {
		t.Fatal("esc should clear the search")
	}
}

func TestItemFormValues(t *testing.T) {
	v := itemFormValues{Name: "  Gym ", Amount: "$1,234.50", Frequency: model.Monthly, Type: model.Expense}
	it, err := v.item()
	if err != nil {
		t.Fatal(err)
	}
	if it.Name != "Gym" || it.Amount != 1234.5 || it.Category != "Uncategorised" {
		t.Fatalf("item = %+v", it)
	}

	for _, bad := range []itemFormValues{
		{Name: "X", Amount: "-1"},
		{Name: "X", Amount: "lots"},
		{Name: "X", Amount: ""},
		{Name: " ", Amount: "1"},
	} {
		if _, err := bad.item(); err == nil {
			t.Errorf("%+v should be rejected", bad)
		}
	}
}

func TestApplyItemFormAddsAndUpdates(t *testing.T) {
	a := loadedApp(t)

	a.itemVals.reset(model.LineItem{})
	a.itemVals.Name = "Coffee"
	a.itemVals.Amount = "5"
	a.itemVals.Category = "Fod"
	a.itemVals.Frequency = model.Weekly
	a.applyItemForm()

	if a.state.Len() != 26 {
		t.Fatalf("Len = %d, want 26", a.state.Len())
	}
	if a.activeTab != tabItems || a.items.cursor != 25 {
		t.Errorf("tab=%d cursor=%d", a.activeTab, a.items.cursor)
	}
	if !strings.Contains(a.status, "similar category: Food") {
		t.Errorf("status = %q", a.status)
	}

	added, _ := a.selectedItem()
	a.itemVals.reset(added)
	if a.itemVals.Amount != "5" {
		t.Fatalf("edit prefill amount = %q", a.itemVals.Amount)
	}
	a.itemVals.Type = model.Savings
	a.applyItemForm()

	got, _ := a.state.Item(added.ID)
	if got.Type != model.Savings {
		t.Fatalf("type = %s, want savings", got.Type)
	}
	if len(a.state.Savings()) != 4 {
		t.Errorf("savings = %d, want 4", len(a.state.Savings()))
	}
}

func TestOpenItemFormAndCancel(t *testing.T) {
	a := press(loadedApp(t), "a")
	if a.itemForm == nil {
		t.Fatal("a should open the item form")
	}
	if !strings.Contains(ansi.Strip(a.View()), "Add item") {
		t.Error("form view should be titled Add item")
	}

	a = press(a, "esc")
	if a.itemForm != nil {
		t.Fatal("esc should close the form")
	}
	if a.state.Len() != 25 {
		t.Fatal("cancelled form must not change the budget")
	}
}

func TestExportCmd(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	items := budget.NewDefault().Items()

	msg := exportCmd(report.FileSink{Dir: dir}, rec, items, fixedNow)()
	done, ok := msg.(ExportDoneMsg)
	if !ok || done.Err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	if !strings.HasSuffix(done.Path, "budget-16-10-2026.csv") {
		t.Errorf("path = %s", done.Path)
	}
	data, err := os.ReadFile(done.Path)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := report.CSV(items)
	if string(data) != want {
		t.Error("exported file does not match the report")
	}
	if len(rec.paths) != 1 || rec.items[0] != 25 {
		t.Errorf("recorder = %+v", rec)
	}
}

func TestExportKeyAndDone(t *testing.T) {
	a := press(loadedApp(t), "x")
	if !a.exporting {
		t.Fatal("x should start an export")
	}

	m, _ := a.Update(ExportDoneMsg{Path: "/tmp/budget.csv"})
	a = m.(App)
	if a.exporting || a.lastExport != "/tmp/budget.csv" {
		t.Fatalf("exporting=%v lastExport=%q", a.exporting, a.lastExport)
	}

	m, _ = a.Update(ExportDoneMsg{Err: errors.New("disk full")})
	a = m.(App)
	if !a.statusErr || !strings.Contains(a.status, "disk full") {
		t.Errorf("status = %q", a.status)
	}
}

func TestSettingsSave(t *testing.T) {
	var saved []config.Config
	a := load(t, newTestApp(t, &saved), budget.NewDefault())

	a = press(a, "s", "enter")
	if !a.settings.editing {
		t.Fatal("enter should start editing")
	}
	a.settings.input.SetValue("weekly")
	a = press(a, "enter")

	if a.state.Frequency() != model.Weekly {
		t.Fatalf("frequency = %s", a.state.Frequency())
	}
	if len(saved) != 1 || saved[0].General.DisplayFrequency != "weekly" {
		t.Fatalf("saved = %+v", saved)
	}

	a = press(a, "j", "enter")
	a.settings.input.SetValue("no-such-theme")
	a = press(a, "enter")
	if a.settings.saveErr == nil {
		t.Error("unknown theme should fail")
	}

	a = press(a, "j", "j", "enter")
	a.settings.input.SetValue("every tuesday")
	a = press(a, "enter")
	if a.settings.saveErr == nil {
		t.Error("bad cron spec should fail")
	}
	if len(saved) != 1 {
		t.Errorf("failed edits must not be saved, got %d saves", len(saved))
	}
}

func TestViewPerTab(t *testing.T) {
	a := loadedApp(t)
	cases := map[string]string{
		"o": "Unallocated",
		"i": "Items (monthly)",
		"c": "Expenses · ",
		"s": "Display Frequency",
	}
	for key, want := range cases {
		a = press(a, key)
		view := ansi.Strip(a.View())
		if !strings.Contains(view, want) {
			t.Errorf("tab %q view missing %q", key, want)
		}
		if lines := strings.Count(view, "\n") + 1; lines != 40 {
			t.Errorf("tab %q view has %d lines, want 40", key, lines)
		}
	}
}

func TestViewTooNarrowAndLoading(t *testing.T) {
	a := newTestApp(t, nil)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(m.(App).View(), "too narrow") {
		t.Error("narrow terminal should say so")
	}

	m, _ = a.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	if !strings.Contains(ansi.Strip(m.(App).View()), "Loading budget") {
		t.Error("expected loading view")
	}
}

func TestLoadError(t *testing.T) {
	a := newTestApp(t, nil)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = m.Update(StateLoadedMsg{Err: errors.New("database is locked")})
	if !strings.Contains(ansi.Strip(m.(App).View()), "database is locked") {
		t.Error("load error should be shown")
	}
	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Error("q should quit from the error screen")
	}
}

func TestFirstRunShowsSetup(t *testing.T) {
	a := newTestApp(t, nil)
	a.needSetup = true
	a = load(t, a, budget.NewDefault())
	if a.setupForm == nil {
		t.Fatal("setup form should open after load")
	}
	if a.setupVals.Frequency != model.Monthly {
		t.Errorf("prefilled frequency = %s", a.setupVals.Frequency)
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := SetupValues{Frequency: model.Fortnightly, Theme: "tokyo-night", ExportDir: " ~/exports "}
	got := v.Apply(cfg)
	if got.General.DisplayFrequency != "fortnightly" || got.Appearance.Theme != "tokyo-night" || got.Export.Dir != "~/exports" {
		t.Fatalf("cfg = %+v", got)
	}

	v.Theme = "nope"
	if got := v.Apply(cfg); got.Appearance.Theme != cfg.Appearance.Theme {
		t.Error("unknown theme should be ignored")
	}
}
