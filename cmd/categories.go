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

var flagCategoryType string

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Category totals per item type",
	RunE:  runCategories,
}

var categoriesCheckCmd = &cobra.Command{
	Use:   "check NAME",
	Short: "Show the existing category a new name most likely means",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesCheck,
}

func init() {
	categoriesCmd.PersistentFlags().StringVarP(&flagCategoryType, "type", "t", "", "Only this item type (income, expense, savings)")
	categoriesCmd.AddCommand(categoriesCheckCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func selectedTypes() ([]model.ItemType, error) {
	if flagCategoryType == "" {
		return model.ItemTypes, nil
	}
	t, err := model.ParseItemType(flagCategoryType)
	if err != nil {
		return nil, err
	}
	return []model.ItemType{t}, nil
}

func runCategories(_ *cobra.Command, _ []string) error {
	types, err := selectedTypes()
	if err != nil {
		return err
	}

	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	st := b.state
	freq := st.Frequency()
	adjusted := st.Summary().Adjusted

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CATEGORIES  %s view", cadence.Label(freq))))

	for _, t := range types {
		totals := st.CategoryTotals(t)
		if len(totals) == 0 {
			continue
		}
		counts := make(map[string]int, len(totals))
		for _, it := range adjusted.Of(t) {
			counts[it.Category]++
		}
		typeTotal := st.Totals().ForType(t)

		rows := make([][]string, 0, len(totals)+2)
		for _, ct := range totals {
			rows = append(rows, []string{
				ct.Category,
				cli.FormatNumber(int64(counts[ct.Category])),
				cli.FormatMoney(ct.Total),
				cli.FormatShare(ct.Total, typeTotal),
			})
		}
		rows = append(rows, []string{"---"}, []string{"Total", cli.FormatNumber(int64(len(adjusted.Of(t)))), cli.FormatMoney(typeTotal), ""})

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   string(t),
			Headers: []string{"Category", "Items", cadence.Label(freq), "Share"},
			Rows:    rows,
		}))
	}
	return nil
}

func runCategoriesCheck(_ *cobra.Command, args []string) error {
	types, err := selectedTypes()
	if err != nil {
		return err
	}

	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	existing := pipeline.NewOrderedSet[string](0)
	for _, t := range types {
		for _, c := range b.state.Summary().Categories[t] {
			existing.Add(c)
		}
	}

	name := args[0]
	if existing.Contains(name) {
		var items []model.LineItem
		for _, t := range types {
			items = append(items, b.state.ItemsOfType(t)...)
		}
		freq := b.state.Frequency()
		total, err := pipeline.CategoryTotalAt(items, name, freq)
		if err != nil {
			return err
		}
		fmt.Printf("  %q is an existing category (%s %s)\n", name, cli.FormatMoney(total), strings.ToLower(cadence.Label(freq)))
		return nil
	}
	if similar, ok := pipeline.SuggestCategory(existing.Values(), name); ok {
		fmt.Printf("  %q is new; did you mean %q?\n", name, similar)
		return nil
	}
	fmt.Printf("  %q is a new category\n", name)
	return nil
}
