package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/theirongolddev/cadence/internal/tui/theme"
)

func TestBarBlocks(t *testing.T) {
	tests := []struct {
		value, peak float64
		width       int
		want        string
	}{
		{10, 10, 4, "████"},
		{5, 10, 4, "██"},
		{0, 10, 4, ""},
		{0.01, 10, 4, "▏"},
		{5.5, 10, 4, "██▏"},
		{20, 10, 4, "████"},
	}
	for _, tt := range tests {
		if got := barBlocks(tt.value, tt.peak, tt.width); got != tt.want {
			t.Errorf("barBlocks(%v, %v, %d) = %q, want %q", tt.value, tt.peak, tt.width, got, tt.want)
		}
	}
}

func TestHBarChart_OneRowPerBar(t *testing.T) {
	theme.SetActive("terminal")

	out := HBarChart([]Bar{
		{Label: "Housing & Utilities", Value: 2000, Note: "$2,000"},
		{Label: "Food", Value: 500, Note: "$500"},
	}, theme.Active.Orange, 60)

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	first := ansi.Strip(lines[0])
	if !strings.HasSuffix(first, "$2,000") {
		t.Errorf("first row should end with its note: %q", first)
	}
	if !strings.Contains(ansi.Strip(lines[1]), "Food") {
		t.Errorf("second row should carry its label: %q", lines[1])
	}
	if HBarChart(nil, theme.Active.Orange, 60) != "" {
		t.Error("empty chart should render nothing")
	}
}

func TestTabVisualWidth(t *testing.T) {
	items := Tabs[1]
	if got := TabVisualWidth(items, true); got != len("Items")+2 {
		t.Errorf("active width = %d", got)
	}
	if got := TabVisualWidth(items, false); got != len("Items")+4 {
		t.Errorf("inactive width = %d", got)
	}
	if got := TabVisualWidth(Tab{Name: "Help", Key: 'z', KeyPos: -1}, false); got != len("Help")+5 {
		t.Errorf("inactive width without key in name = %d", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if TabIdxByKey('c') != 2 {
		t.Error("c should select Categories")
	}
	if TabIdxByKey('z') != -1 {
		t.Error("unknown key should return -1")
	}
}
