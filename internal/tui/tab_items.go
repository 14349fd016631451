package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
	"github.com/theirongolddev/cadence/internal/tui/components"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// itemsState holds the items tab state.
type itemsState struct {
	cursor int

	searching   bool
	searchInput textinput.Model
	query       string

	// confirmID is the item awaiting delete confirmation.
	confirmID string
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "item name"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 30
	return ti
}

// visibleItems returns the items shown in the list, after search.
func (a App) visibleItems() []model.LineItem {
	return pipeline.FilterByName(a.state.Items(), a.items.query)
}

func (a App) selectedItem() (model.LineItem, bool) {
	items := a.visibleItems()
	if a.items.cursor < 0 || a.items.cursor >= len(items) {
		return model.LineItem{}, false
	}
	return items[a.items.cursor], true
}

func (a *App) clampItemsCursor() {
	n := len(a.visibleItems())
	if a.items.cursor >= n {
		a.items.cursor = n - 1
	}
	if a.items.cursor < 0 {
		a.items.cursor = 0
	}
}

// updateItemsKey handles the items tab bindings. handled is false for keys
// that fall through to the global bindings.
func (a App) updateItemsKey(key string) (next tea.Model, cmd tea.Cmd, handled bool) {
	n := len(a.visibleItems())

	switch key {
	case "/":
		a.items.searching = true
		a.items.searchInput = newSearchInput()
		a.items.searchInput.SetValue(a.items.query)
		a.items.searchInput.Focus()
		return a, a.items.searchInput.Cursor.BlinkCmd(), true
	case "esc":
		if a.items.query != "" {
			a.items.query = ""
			a.items.cursor = 0
		}
		return a, nil, true
	case "j", "down":
		if a.items.cursor < n-1 {
			a.items.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.items.cursor > 0 {
			a.items.cursor--
		}
		return a, nil, true
	case "g", "home":
		a.items.cursor = 0
		return a, nil, true
	case "G", "end":
		a.items.cursor = max(n-1, 0)
		return a, nil, true
	case "e", "enter":
		it, ok := a.selectedItem()
		if !ok {
			return a, nil, true
		}
		next, cmd = a.openItemForm(it)
		return next, cmd, true
	case "d", "delete":
		it, ok := a.selectedItem()
		if !ok {
			return a, nil, true
		}
		a.items.confirmID = it.ID
		a.setStatus(fmt.Sprintf("Delete %q? [y/N]", it.Name), false)
		return a, nil, true
	}
	return a, nil, false
}

// updateItemsSearch handles key events while in search mode.
func (a App) updateItemsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.items.query = strings.TrimSpace(a.items.searchInput.Value())
		a.items.searching = false
		a.items.cursor = 0
		return a, nil
	case "esc":
		a.items.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.items.searchInput, cmd = a.items.searchInput.Update(msg)
	return a, cmd
}

func (a App) updateConfirmDelete(key string) (tea.Model, tea.Cmd) {
	id := a.items.confirmID
	a.items.confirmID = ""

	if key != "y" && key != "Y" {
		a.setStatus("", false)
		return a, nil
	}

	it, _ := a.state.Item(id)
	if a.state.RemoveItem(id) {
		a.setStatus(fmt.Sprintf("Deleted %q", it.Name), false)
	}
	a.clampItemsCursor()
	return a, nil
}

func (a App) renderItemsTab(cw, h int) string {
	t := theme.Active
	items := a.visibleItems()

	var search string
	if a.items.searching {
		search = lipgloss.NewStyle().Background(t.Surface).Render(a.items.searchInput.View()) + "\n"
	}

	if len(items) == 0 {
		msg := "No items yet. Press a to add one."
		if a.items.query != "" {
			msg = fmt.Sprintf("No items match %q. Esc clears the search.", a.items.query)
		}
		return search + components.ContentCard("Items",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(msg), cw)
	}

	if a.isCompactLayout() {
		return search + a.renderItemList(items, cw, h-lipgloss.Height(search))
	}

	listW := cw * 2 / 3
	detailW := cw - listW
	list := a.renderItemList(items, listW, h-lipgloss.Height(search))
	detail := a.renderItemDetail(items[a.items.cursor], detailW)
	return search + components.CardRow([]string{list, detail})
}

func (a App) renderItemList(items []model.LineItem, w, h int) string {
	t := theme.Active
	freq := a.state.Frequency()
	inner := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selectedBg := t.SurfaceBright

	// Fixed columns: type 8, raw amount 14, frequency 12, adjusted 14, gaps.
	const fixed = 8 + 14 + 12 + 14 + 5
	flex := inner - fixed
	if flex < 20 {
		flex = 20
	}
	nameW := flex * 3 / 5
	catW := flex - nameW

	row := func(name, cat, typ, amount, every, adjusted string) string {
		return fmt.Sprintf("%-*s %-*s %-8s %14s %-12s %14s",
			nameW, ansi.Truncate(name, nameW, "…"),
			catW, ansi.Truncate(cat, catW, "…"),
			typ, amount, every, adjusted)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(row("Name", "Category", "Type", "Amount", "Every", cadence.Label(freq))))
	b.WriteString("\n")

	visible := h - 5 // card border (2) + title (1) + header (1) + hint (1)
	if visible < 3 {
		visible = 3
	}
	offset := 0
	if a.items.cursor >= visible {
		offset = a.items.cursor - visible + 1
	}
	end := min(offset+visible, len(items))

	for i := offset; i < end; i++ {
		it := items[i]
		adjusted, err := cadence.Convert(it.Amount, it.Frequency, freq)
		adjustedStr := cli.FormatMoney(adjusted)
		if err != nil {
			adjustedStr = "?"
		}
		line := row(it.Name, it.Category, string(it.Type), cli.FormatMoney(it.Amount),
			strings.ToLower(cadence.Label(it.Frequency)), adjustedStr)

		style := rowStyle
		if i == a.items.cursor {
			style = style.Background(selectedBg).Bold(true)
			if it.ID == a.items.confirmID {
				style = style.Foreground(t.Red)
			}
		}
		typeColored := style.Foreground(t.ForType(it.Type))
		if i == a.items.cursor && it.ID == a.items.confirmID {
			typeColored = style
		}

		// Color the type column without breaking the fixed-width row.
		prefixW := nameW + 1 + catW + 1
		b.WriteString(style.Render(ansi.Cut(line, 0, prefixW)))
		b.WriteString(typeColored.Render(ansi.Cut(line, prefixW, prefixW+8)))
		b.WriteString(style.Render(ansi.Cut(line, prefixW+8, lipgloss.Width(line))))
		b.WriteString("\n")
	}

	hint := "[a]dd  [e]dit  [d]elete  [/]search"
	if len(items) > visible {
		hint = fmt.Sprintf("%d–%d of %d  ", offset+1, end, len(items)) + hint
	}
	b.WriteString(mutedStyle.Render(hint))

	title := fmt.Sprintf("Items (%s)", strings.ToLower(cadence.Label(freq)))
	return components.ContentCard(title, b.String(), w)
}

func (a App) renderItemDetail(it model.LineItem, w int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	typeStyle := lipgloss.NewStyle().Foreground(t.ForType(it.Type)).Background(t.Surface).Bold(true)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	current := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	inner := components.CardInnerWidth(w)

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Name      "), valueStyle.Render(ansi.Truncate(it.Name, inner-10, "…")))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Category  "), valueStyle.Render(ansi.Truncate(it.Category, inner-10, "…")))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Type      "), typeStyle.Render(string(it.Type)))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Recorded  "),
		valueStyle.Render(cli.FormatMoney(it.Amount)+" "+strings.ToLower(cadence.Label(it.Frequency))))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Equivalent"))
	b.WriteString("\n")

	for _, e := range cadence.All() {
		v, err := cadence.Convert(it.Amount, it.Frequency, e.Frequency)
		if err != nil {
			continue
		}
		style := valueStyle
		if e.Frequency == a.state.Frequency() {
			style = current
		}
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render(fmt.Sprintf("%-12s", e.Label)), style.Render(fmt.Sprintf("%14s", cli.FormatMoney(v))))
	}

	return components.ContentCard("Detail", strings.TrimRight(b.String(), "\n"), w)
}
