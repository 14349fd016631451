package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
)

var (
	flagItemType     string
	flagItemCategory string
	flagItemSearch   string
	flagItemEvery    string
	flagItemName     string
	flagItemAmount   float64

	flagAddType     string
	flagAddCategory string
	flagAddEvery    string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List and edit budget items",
	RunE:  runItemsList,
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items with amounts at the display frequency",
	RunE:  runItemsList,
}

var itemsAddCmd = &cobra.Command{
	Use:   "add NAME AMOUNT",
	Short: "Add a recurring item",
	Args:  cobra.ExactArgs(2),
	RunE:  runItemsAdd,
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change fields of an existing item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsUpdate,
}

var itemsRemoveCmd = &cobra.Command{
	Use:     "remove ID",
	Aliases: []string{"rm"},
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	RunE:    runItemsRemove,
}

func init() {
	for _, c := range []*cobra.Command{itemsCmd, itemsListCmd} {
		c.Flags().StringVarP(&flagItemType, "type", "t", "", "Only items of this type (income, expense, savings)")
		c.Flags().StringVarP(&flagItemCategory, "category", "c", "", "Only items in this category")
		c.Flags().StringVarP(&flagItemSearch, "search", "s", "", "Only items whose name contains this text")
	}

	itemsAddCmd.Flags().StringVarP(&flagAddType, "type", "t", "expense", "Item type (income, expense, savings)")
	itemsAddCmd.Flags().StringVarP(&flagAddCategory, "category", "c", "Uncategorised", "Category")
	itemsAddCmd.Flags().StringVarP(&flagAddEvery, "every", "e", "monthly", "How often the amount recurs")

	itemsUpdateCmd.Flags().StringVar(&flagItemName, "name", "", "New name")
	itemsUpdateCmd.Flags().Float64Var(&flagItemAmount, "amount", 0, "New amount")
	itemsUpdateCmd.Flags().StringVarP(&flagItemType, "type", "t", "", "New type")
	itemsUpdateCmd.Flags().StringVarP(&flagItemCategory, "category", "c", "", "New category")
	itemsUpdateCmd.Flags().StringVarP(&flagItemEvery, "every", "e", "", "New frequency")

	itemsCmd.AddCommand(itemsListCmd, itemsAddCmd, itemsUpdateCmd, itemsRemoveCmd)
	rootCmd.AddCommand(itemsCmd)
}

func runItemsList(_ *cobra.Command, _ []string) error {
	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	st := b.state
	items := st.Items()
	if flagItemType != "" {
		t, err := model.ParseItemType(flagItemType)
		if err != nil {
			return err
		}
		items = st.ItemsOfType(t)
	}
	if flagItemCategory != "" {
		items = pipeline.FilterByCategory(items, flagItemCategory)
	}
	if flagItemSearch != "" {
		items = pipeline.FilterByName(items, flagItemSearch)
	}

	if len(items) == 0 {
		fmt.Println("\n  No matching items.")
		return nil
	}

	freq := st.Frequency()
	adjusted, err := pipeline.Adjust(items, freq)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{
			shortID(it.ID),
			it.Name,
			it.Category,
			string(it.Type),
			cli.FormatMoney(it.Amount),
			strings.ToLower(cadence.Label(it.Frequency)),
			cli.FormatMoney(adjusted[i].Amount),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Items (%s)", strings.ToLower(cadence.Label(freq))),
		Headers:  []string{"ID", "Name", "Category", "Type", "Amount", "Every", cadence.Label(freq)},
		Rows:     rows,
		LeftCols: 4,
	}))
	fmt.Println(cli.Muted(fmt.Sprintf("  %d of %d items", len(items), st.Len())))
	return nil
}

func runItemsAdd(_ *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.TrimPrefix(args[1], "$"), 64)
	if err != nil {
		return fmt.Errorf("amount %q is not a number", args[1])
	}
	if amount < 0 {
		return errors.New("amount must not be negative")
	}
	typ, err := model.ParseItemType(flagAddType)
	if err != nil {
		return err
	}
	every, err := cadence.Parse(flagAddEvery)
	if err != nil {
		return err
	}

	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	existing := b.state.Summary().Categories[typ]
	added, err := b.state.AddItem(model.LineItem{
		Name:      strings.TrimSpace(args[0]),
		Amount:    amount,
		Category:  strings.TrimSpace(flagAddCategory),
		Frequency: every,
		Type:      typ,
	})
	if err != nil {
		return err
	}
	if err := b.Err(); err != nil {
		return err
	}

	fmt.Printf("  Added %q (%s)\n", added.Name, shortID(added.ID))
	if similar, ok := pipeline.SuggestCategory(existing, added.Category); ok {
		fmt.Println(cli.Muted(fmt.Sprintf("  New category %q looks like existing %q", added.Category, similar)))
	}
	return nil
}

func runItemsUpdate(cmd *cobra.Command, args []string) error {
	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	it, ok, err := findItem(b, args[0])
	if err != nil {
		return err
	}
	if !ok {
		reportMissing(args[0])
		return nil
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		it.Name = strings.TrimSpace(flagItemName)
	}
	if flags.Changed("amount") {
		if flagItemAmount < 0 {
			return errors.New("amount must not be negative")
		}
		it.Amount = flagItemAmount
	}
	if flags.Changed("category") {
		it.Category = strings.TrimSpace(flagItemCategory)
	}
	if flags.Changed("type") {
		if it.Type, err = model.ParseItemType(flagItemType); err != nil {
			return err
		}
	}
	if flags.Changed("every") {
		if it.Frequency, err = cadence.Parse(flagItemEvery); err != nil {
			return err
		}
	}

	updated, err := b.state.UpdateItem(it)
	if err != nil {
		return err
	}
	if !updated {
		reportMissing(it.ID)
		return nil
	}
	if err := b.Err(); err != nil {
		return err
	}
	fmt.Printf("  Updated %q\n", it.Name)
	return nil
}

func runItemsRemove(_ *cobra.Command, args []string) error {
	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	it, ok, err := findItem(b, args[0])
	if err != nil {
		return err
	}
	if !ok || !b.state.RemoveItem(it.ID) {
		reportMissing(args[0])
		return nil
	}
	if err := b.Err(); err != nil {
		return err
	}
	fmt.Printf("  Removed %q\n", it.Name)
	return nil
}

// findItem resolves a full id or a unique id prefix, as shown by `items list`.
// ok is false when nothing matches; an ambiguous prefix is an error.
func findItem(b *openedBudget, ref string) (it model.LineItem, ok bool, err error) {
	if it, ok := b.state.Item(ref); ok {
		return it, true, nil
	}
	var matches []model.LineItem
	for _, it := range b.state.Items() {
		if strings.HasPrefix(it.ID, ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return model.LineItem{}, false, nil
	case 1:
		return matches[0], true, nil
	}
	return model.LineItem{}, false, fmt.Errorf("id %q is ambiguous (%d items match)", ref, len(matches))
}

func reportMissing(ref string) {
	fmt.Printf("  No item with id %q, nothing changed\n", ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
