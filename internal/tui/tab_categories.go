package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
	"github.com/theirongolddev/cadence/internal/tui/components"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

var typeTitles = map[model.ItemType]string{
	model.Income:  "Income",
	model.Expense: "Expenses",
	model.Savings: "Savings",
}

func (a App) renderCategoriesTab(cw int) string {
	if a.isCompactLayout() {
		cards := make([]string, 0, len(model.ItemTypes))
		for _, typ := range model.ItemTypes {
			cards = append(cards, a.renderCategoryCard(typ, cw))
		}
		return strings.Join(cards, "\n")
	}

	// Wide: income and savings side by side, expenses full width below.
	halves := components.LayoutRow(cw, 2)
	top := components.CardRow([]string{
		a.renderCategoryCard(model.Income, halves[0]),
		a.renderCategoryCard(model.Savings, halves[1]),
	})
	return top + "\n" + a.renderCategoryCard(model.Expense, cw)
}

func (a App) renderCategoryCard(typ model.ItemType, outerW int) string {
	t := theme.Active
	shares := pipeline.RankCategories(a.state.Summary().Adjusted.Of(typ))
	total := a.state.Totals().ForType(typ)

	title := fmt.Sprintf("%s · %s", typeTitles[typ], cli.FormatMoney(total))
	if len(shares) == 0 {
		return components.ContentCard(title,
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No items."), outerW)
	}

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	body := components.HBarChart(shareBars(shares), t.ForType(typ), components.CardInnerWidth(outerW)) +
		"\n" + mutedStyle.Render(categoryFooter(shares))
	return components.ContentCard(title, body, outerW)
}

func categoryFooter(shares []pipeline.CategoryShare) string {
	items := 0
	for _, s := range shares {
		items += s.Items
	}
	cats := "categories"
	if len(shares) == 1 {
		cats = "category"
	}
	return fmt.Sprintf("%d items in %d %s", items, len(shares), cats)
}
