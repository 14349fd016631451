// Package report builds the monthly/annual breakdown of a budget and renders
// it as CSV.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
)

// Header is the first line of every export.
const Header = "Type,Name,Category,Amount,Frequency,Monthly Total,Annual Total"

// Row is one line item with its monthly and annual equivalents.
type Row struct {
	Name      string
	Category  string
	Amount    float64
	Frequency model.Frequency
	Monthly   float64
	Annual    float64
}

// Section groups the rows of one item type.
type Section struct {
	Type    model.ItemType
	Label   string
	Rows    []Row
	Monthly float64
	Annual  float64
}

// Report is the export view of a budget. It does not depend on the display
// frequency: every figure is given both monthly and annually.
type Report struct {
	Sections           []Section
	MonthlyUnallocated float64
	AnnualUnallocated  float64
}

var sectionLabels = map[model.ItemType]string{
	model.Income:  "Income",
	model.Expense: "Expenses",
	model.Savings: "Savings",
}

// Build groups items by type and computes the per-item and per-section
// figures. Sections with no items are left out.
func Build(items []model.LineItem) (Report, error) {
	var r Report
	var monthly, annual [3]float64

	for i, t := range model.ItemTypes {
		sec := Section{Type: t, Label: sectionLabels[t]}
		for _, it := range items {
			if it.Type != t {
				continue
			}
			m, err := cadence.Convert(it.Amount, it.Frequency, model.Monthly)
			if err != nil {
				return Report{}, fmt.Errorf("exporting %q: %w", it.Name, err)
			}
			a, err := cadence.Convert(it.Amount, it.Frequency, model.Annually)
			if err != nil {
				return Report{}, fmt.Errorf("exporting %q: %w", it.Name, err)
			}
			sec.Rows = append(sec.Rows, Row{
				Name:      it.Name,
				Category:  it.Category,
				Amount:    it.Amount,
				Frequency: it.Frequency,
				Monthly:   m,
				Annual:    a,
			})
			sec.Monthly += m
			sec.Annual += a
		}
		monthly[i], annual[i] = sec.Monthly, sec.Annual
		if len(sec.Rows) > 0 {
			r.Sections = append(r.Sections, sec)
		}
	}

	r.MonthlyUnallocated = monthly[0] - (monthly[1] + monthly[2])
	r.AnnualUnallocated = annual[0] - (annual[1] + annual[2])
	return r, nil
}

// Lines renders the report one CSV row per element.
func (r Report) Lines() []string {
	lines := []string{Header}
	for _, sec := range r.Sections {
		lines = append(lines, sec.Label)
		for _, row := range sec.Rows {
			lines = append(lines, fmt.Sprintf(",%s,%s,%s,%s,%s,%s",
				quote(row.Name),
				quote(row.Category),
				strconv.FormatFloat(row.Amount, 'f', -1, 64),
				row.Frequency,
				FormatFixed2(row.Monthly),
				FormatFixed2(row.Annual),
			))
		}
		lines = append(lines,
			fmt.Sprintf("%s Total,,,,%s,%s", sec.Label, FormatFixed2(sec.Monthly), FormatFixed2(sec.Annual)),
			"",
		)
	}
	lines = append(lines, fmt.Sprintf("Unallocated,,,,%s,%s",
		FormatFixed2(r.MonthlyUnallocated), FormatFixed2(r.AnnualUnallocated)))
	return lines
}

// WriteCSV writes r to w. Rows are separated by a single newline and there
// is no trailing newline.
func WriteCSV(w io.Writer, r Report) error {
	if _, err := io.WriteString(w, strings.Join(r.Lines(), "\n")); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// CSV builds the report for items and returns it as a string.
func CSV(items []model.LineItem) (string, error) {
	r, err := Build(items)
	if err != nil {
		return "", err
	}
	return strings.Join(r.Lines(), "\n"), nil
}

// FileName returns the export file name for the given day, e.g.
// budget-16-10-2026.csv.
func FileName(t time.Time) string {
	return "budget-" + t.Format("02-01-2006") + ".csv"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
