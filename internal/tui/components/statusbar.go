package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theirongolddev/cadence/internal/tui/theme"
)

// StatusInfo is what the bottom bar shows.
type StatusInfo struct {
	Frequency string
	Items     int
	Message   string
	IsError   bool
}

// RenderStatusBar renders the bottom status bar: key hints on the left, the
// display frequency and item count on the right, and a transient message
// in between.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	msgStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	if info.IsError {
		msgStyle = msgStyle.Foreground(t.Red)
	}

	left := base.Render(" [?]help  [f]requency  [x]export  [q]uit")
	right := accent.Render(info.Frequency) + base.Render(" · ") +
		base.Render(itemsLabel(info.Items)) + base.Render(" ")

	room := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	middle := ""
	if info.Message != "" && room > 3 {
		middle = msgStyle.Render(" " + ansi.Truncate(info.Message, room, "…") + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	gap := base.Render(strings.Repeat(" ", padding))

	return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).
		Render(left + middle + gap + right)
}

func itemsLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}
