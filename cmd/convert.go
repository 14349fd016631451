package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/cli"
)

var convertCmd = &cobra.Command{
	Use:   "convert AMOUNT FROM [TO]",
	Short: "Convert an amount between frequencies",
	Long:  "Convert an amount between frequencies. Without TO, every frequency is shown.",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(_ *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "$"), 64)
	if err != nil {
		return fmt.Errorf("amount %q is not a number", args[0])
	}
	from, err := cadence.Parse(args[1])
	if err != nil {
		return err
	}

	if len(args) == 3 {
		to, err := cadence.Parse(args[2])
		if err != nil {
			return err
		}
		v, err := cadence.Convert(amount, from, to)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s = %s %s\n",
			cli.FormatMoney(amount), strings.ToLower(cadence.Label(from)),
			cli.FormatMoney(v), strings.ToLower(cadence.Label(to)))
		return nil
	}

	rows := make([][]string, 0, len(cadence.All()))
	for _, e := range cadence.All() {
		v, err := cadence.Convert(amount, from, e.Frequency)
		if err != nil {
			return err
		}
		rows = append(rows, []string{e.Label, cli.FormatMoney(v)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s %s", cli.FormatMoney(amount), strings.ToLower(cadence.Label(from))),
		Headers: []string{"Frequency", "Amount"},
		Rows:    rows,
	}))
	return nil
}
