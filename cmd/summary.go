package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Budget totals at the display frequency",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	st := b.state
	if st.Len() == 0 {
		fmt.Println("\n  No budget items yet.")
		fmt.Println("  Add one with `cadence items add`, or import a budget file.")
		return nil
	}

	freq := st.Frequency()
	totals := st.Totals()

	annual := func(v float64) string {
		a, err := cadence.Convert(v, freq, model.Annually)
		if err != nil {
			return "-"
		}
		return cli.FormatMoney(a)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET  %s view", cadence.Label(freq))))
	fmt.Println()

	rows := [][]string{
		{"Income", cli.FormatMoney(totals.Income), annual(totals.Income), "100.0%"},
		{"Expenses", cli.FormatMoney(totals.Expenses), annual(totals.Expenses), cli.FormatShare(totals.Expenses, totals.Income)},
		{"Savings", cli.FormatMoney(totals.Savings), annual(totals.Savings), cli.FormatShare(totals.Savings, totals.Income)},
		{"---"},
		{"Unallocated", cli.RenderBalance(totals.Unallocated), annual(totals.Unallocated), cli.FormatShare(totals.Unallocated, totals.Income)},
	}
	if totals.Income == 0 {
		rows[0][3] = "-"
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", cadence.Label(freq), "Annually", "Of income"},
		Rows:    rows,
	}))

	// Top expense categories
	byCat := pipeline.RankCategories(st.AdjustedExpenses())
	if len(byCat) > 0 {
		fmt.Println()
		fmt.Printf("  %s\n", cli.Header("Top expense categories"))
		labelW := 0
		for _, ct := range byCat {
			labelW = max(labelW, len(ct.Category))
		}
		peak := byCat[0].Total
		for i, ct := range byCat {
			if i == 5 {
				fmt.Println(cli.Muted(fmt.Sprintf("  … and %d more", len(byCat)-i)))
				break
			}
			fmt.Println(cli.RenderHorizontalBar(ct.Category, labelW, ct.Total, peak, 30))
		}
	}

	fmt.Println()
	fmt.Println(cli.Muted(fmt.Sprintf("  %d items · switch with -f %s",
		st.Len(), strings.ToLower(cadence.Label(cadence.Next(freq))))))
	return nil
}
