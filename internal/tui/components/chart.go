package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	// Note is drawn after the bar, e.g. a formatted amount.
	Note string
}

// eighths are the partial block characters, from one eighth to full.
var eighths = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// HBarChart renders one bar per row scaled to the largest value. Labels are
// truncated to a third of the width at most.
func HBarChart(bars []Bar, color lipgloss.Color, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	noteW := 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		noteW = max(noteW, lipgloss.Width(b.Note))
		peak = math.Max(peak, b.Value)
	}
	labelW = min(labelW, max(width/3, 6))
	if peak <= 0 {
		peak = 1
	}

	barW := width - labelW - noteW - 2
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, bar := range bars {
		if i > 0 {
			b.WriteString("\n")
		}
		label := ansi.Truncate(bar.Label, labelW, "…")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)))
		b.WriteString(spaceStyle.Render(" "))

		blocks := barBlocks(bar.Value, peak, barW)
		b.WriteString(barStyle.Render(blocks))
		b.WriteString(spaceStyle.Render(strings.Repeat(" ", barW-lipgloss.Width(blocks)+1)))
		b.WriteString(noteStyle.Render(fmt.Sprintf("%*s", noteW, bar.Note)))
	}
	return b.String()
}

// barBlocks returns the block run for value at eighth-cell resolution.
// Any positive value gets at least one sliver.
func barBlocks(value, peak float64, width int) string {
	if value <= 0 || width <= 0 {
		return ""
	}
	cells := value / peak * float64(width)
	full := int(cells)
	if full > width {
		full = width
	}
	frac := int((cells - float64(full)) * 8)

	s := strings.Repeat("█", full)
	if full < width && frac > 0 {
		s += string(eighths[frac-1])
	}
	if s == "" {
		s = string(eighths[0])
	}
	return s
}
