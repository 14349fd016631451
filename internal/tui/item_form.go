package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// itemFormValues is bound to the item editor fields. The App keeps it behind
// a pointer so the bindings survive model copies.
type itemFormValues struct {
	ID        string
	Name      string
	Amount    string
	Category  string
	Frequency model.Frequency
	Type      model.ItemType
}

func (v *itemFormValues) reset(it model.LineItem) {
	*v = itemFormValues{
		ID:        it.ID,
		Name:      it.Name,
		Category:  it.Category,
		Frequency: it.Frequency,
		Type:      it.Type,
	}
	if it.ID != "" {
		v.Amount = strconv.FormatFloat(it.Amount, 'f', -1, 64)
	}
	if v.Frequency == "" {
		v.Frequency = model.Monthly
	}
	if v.Type == "" {
		v.Type = model.Expense
	}
}

// item converts the form values to a line item.
func (v itemFormValues) item() (model.LineItem, error) {
	amount, err := parseAmount(v.Amount)
	if err != nil {
		return model.LineItem{}, err
	}
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return model.LineItem{}, errors.New("name is required")
	}
	category := strings.TrimSpace(v.Category)
	if category == "" {
		category = "Uncategorised"
	}
	return model.LineItem{
		ID:        v.ID,
		Name:      name,
		Amount:    amount,
		Category:  category,
		Frequency: v.Frequency,
		Type:      v.Type,
	}, nil
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, errors.New("amount is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", s)
	}
	if v < 0 {
		return 0, errors.New("amount must not be negative")
	}
	return v, nil
}

func frequencyOptions() []huh.Option[model.Frequency] {
	opts := make([]huh.Option[model.Frequency], 0, len(cadence.All()))
	for _, e := range cadence.All() {
		opts = append(opts, huh.NewOption(e.Label, e.Frequency))
	}
	return opts
}

func typeOptions() []huh.Option[model.ItemType] {
	return []huh.Option[model.ItemType]{
		huh.NewOption("Income", model.Income),
		huh.NewOption("Expense", model.Expense),
		huh.NewOption("Savings", model.Savings),
	}
}

func newItemForm(vals *itemFormValues, categories []string) *huh.Form {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&vals.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Value(&vals.Amount).
				Validate(func(s string) error {
					_, err := parseAmount(s)
					return err
				}),
			huh.NewSelect[model.Frequency]().
				Title("Every").
				Options(frequencyOptions()...).
				Value(&vals.Frequency),
			huh.NewSelect[model.ItemType]().
				Title("Type").
				Options(typeOptions()...).
				Value(&vals.Type),
			huh.NewInput().
				Title("Category").
				Suggestions(categories).
				Value(&vals.Category),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)

	return form
}

func formWidth(termW int) int {
	w := termW - 8
	if w > 64 {
		w = 64
	}
	if w < 30 {
		w = 30
	}
	return w
}

// openItemForm opens the editor. A zero item means a new one.
func (a App) openItemForm(it model.LineItem) (tea.Model, tea.Cmd) {
	a.itemVals.reset(it)
	a.itemForm = newItemForm(a.itemVals, a.allCategories()).WithWidth(formWidth(a.width))
	return a, a.itemForm.Init()
}

func (a App) allCategories() []string {
	set := pipeline.NewOrderedSet[string](0)
	for _, t := range model.ItemTypes {
		for _, c := range a.state.Summary().Categories[t] {
			set.Add(c)
		}
	}
	return set.Values()
}

func (a App) updateItemForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.itemForm = nil
		a.setStatus("Edit cancelled", false)
		return a, nil
	}

	form, cmd := a.itemForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.itemForm = f
	}

	switch a.itemForm.State {
	case huh.StateCompleted:
		a.itemForm = nil
		a.applyItemForm()
		return a, nil
	case huh.StateAborted:
		a.itemForm = nil
		return a, nil
	}
	return a, cmd
}

// applyItemForm writes the editor values to the state.
func (a *App) applyItemForm() {
	it, err := a.itemVals.item()
	if err != nil {
		a.setStatus(err.Error(), true)
		return
	}

	hint := ""
	if similar, ok := pipeline.SuggestCategory(a.allCategories(), it.Category); ok {
		hint = fmt.Sprintf(" (similar category: %s)", similar)
	}

	if it.ID == "" {
		added, err := a.state.AddItem(it)
		if err != nil {
			a.setStatus(err.Error(), true)
			return
		}
		a.activeTab = tabItems
		a.items.query = ""
		a.items.cursor = a.state.Len() - 1
		a.setStatus(fmt.Sprintf("Added %q%s", added.Name, hint), false)
		return
	}

	updated, err := a.state.UpdateItem(it)
	switch {
	case err != nil:
		a.setStatus(err.Error(), true)
	case !updated:
		a.setStatus(fmt.Sprintf("%q no longer exists", it.Name), true)
	default:
		a.setStatus(fmt.Sprintf("Updated %q%s", it.Name, hint), false)
	}
}

func (a App) viewItemForm() string {
	t := theme.Active

	title := "Add item"
	if a.itemVals.ID != "" {
		title = "Edit item"
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	body := titleStyle.Render("◈ "+title) + "\n\n" +
		a.itemForm.View() + "\n" +
		dimStyle.Render("Esc to cancel")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}
