package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
	"github.com/theirongolddev/cadence/internal/tui/components"
	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// maxOverviewCategories caps the expense chart on the overview tab.
const maxOverviewCategories = 8

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	st := a.state
	totals := st.Totals()
	freq := st.Frequency()
	var b strings.Builder

	// Row 1: Totals at the display frequency, with the annual equivalent
	annual := func(v float64) string {
		if freq == model.Annually {
			return ""
		}
		return cli.FormatMoneyShort(cadence.MustConvert(v, freq, model.Annually)) + " / year"
	}

	unallocatedNote := "left to allocate"
	if totals.Unallocated < 0 {
		unallocatedNote = "overspent"
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Income", Value: cli.FormatMoney(totals.Income), Note: annual(totals.Income), Color: t.ForType(model.Income)},
		{Label: "Expenses", Value: cli.FormatMoney(totals.Expenses), Note: annual(totals.Expenses), Color: t.ForType(model.Expense)},
		{Label: "Savings", Value: cli.FormatMoney(totals.Savings), Note: annual(totals.Savings), Color: t.ForType(model.Savings)},
		{Label: "Unallocated", Value: cli.FormatMoney(totals.Unallocated), Note: unallocatedNote, Color: t.ForBalance(totals.Unallocated)},
	}, cw))
	b.WriteString("\n")

	// Row 2: Allocation bars + expense breakdown, side by side when wide
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Allocation of income", a.renderAllocation(cw), cw))
		b.WriteString("\n")
		b.WriteString(a.renderExpenseChartCard(cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Allocation of income", a.renderAllocation(halves[0]), halves[0]),
		a.renderExpenseChartCard(halves[1]),
	}))
	return b.String()
}

func (a App) renderAllocation(outerW int) string {
	t := theme.Active
	totals := a.state.Totals()
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if totals.Income <= 0 {
		return mutedStyle.Render("No income recorded. Add an income item with a.")
	}

	inner := components.CardInnerWidth(outerW)
	labelW := 10
	barW := inner - labelW - 6
	if barW < 10 {
		barW = 10
	}

	rows := []struct {
		label string
		value float64
	}{
		{"Expenses", totals.Expenses},
		{"Savings", totals.Savings},
		{"Committed", totals.Expenses + totals.Savings},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(components.AllocationBar(r.label, r.value/totals.Income, labelW, barW))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d income · %d expense · %d savings items",
		len(a.state.Income()), len(a.state.Expenses()), len(a.state.Savings()))))
	return b.String()
}

func (a App) renderExpenseChartCard(outerW int) string {
	t := theme.Active
	shares := pipeline.RankCategories(a.state.AdjustedExpenses())

	title := "Expenses by category"
	if len(shares) == 0 {
		return components.ContentCard(title,
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No expenses recorded."), outerW)
	}

	if len(shares) > maxOverviewCategories {
		title = fmt.Sprintf("Top %d expense categories", maxOverviewCategories)
		shares = shares[:maxOverviewCategories]
	}

	return components.ContentCard(title,
		components.HBarChart(shareBars(shares), t.ForType(model.Expense), components.CardInnerWidth(outerW)),
		outerW)
}

func shareBars(shares []pipeline.CategoryShare) []components.Bar {
	bars := make([]components.Bar, len(shares))
	for i, s := range shares {
		bars[i] = components.Bar{
			Label: s.Category,
			Value: s.Total,
			Note:  fmt.Sprintf("%s %4.0f%%", cli.FormatMoneyShort(s.Total), s.SharePercent),
		}
	}
	return bars
}
