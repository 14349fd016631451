package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cadence/internal/model"
)

func item(id, name string, amount float64, category string, f model.Frequency, t model.ItemType) model.LineItem {
	return model.LineItem{ID: id, Name: name, Amount: amount, Category: category, Frequency: f, Type: t}
}

func fixture() []model.LineItem {
	return []model.LineItem{
		item("1", "Salary", 1000, "Wages", model.Monthly, model.Income),
		item("2", "Groceries", 50, "Food", model.Weekly, model.Expense),
		item("3", "Rates", 300, "Housing", model.Quarterly, model.Expense),
		item("4", "Takeaway", 50, "Food", model.Weekly, model.Expense),
		item("5", "Bonus", 500, "Wages", model.Annually, model.Income),
		item("6", "Retirement", 200, "Super", model.Monthly, model.Savings),
	}
}

func TestPartition_KeepsInsertionOrder(t *testing.T) {
	p := Partition(fixture())

	require.Len(t, p.Income, 2)
	require.Len(t, p.Expense, 3)
	require.Len(t, p.Savings, 1)
	require.Equal(t, []string{"Salary", "Bonus"}, names(p.Income))
	require.Equal(t, []string{"Groceries", "Rates", "Takeaway"}, names(p.Expense))
}

func TestCategories_FirstSeenOrder(t *testing.T) {
	p := Partition(fixture())
	require.Equal(t, []string{"Food", "Housing"}, Categories(p.Expense))
	require.Empty(t, Categories(nil))
}

func TestSummarize_SingleMonthlyIncomeAtAnnual(t *testing.T) {
	items := []model.LineItem{item("a", "Salary", 1000, "Wages", model.Monthly, model.Income)}

	s, err := Summarize(items, model.Annually)
	require.NoError(t, err)
	require.Len(t, s.Adjusted.Income, 1)
	require.Equal(t, 12000.0, s.Adjusted.Income[0].Amount)
	require.Equal(t, 1000.0, s.Partitions.Income[0].Amount, "raw partition must not be mutated")
}

func TestSummarize_QuarterlyIncomeMonthlyExpense(t *testing.T) {
	items := []model.LineItem{
		item("a", "Dividends", 500, "Investments", model.Quarterly, model.Income),
		item("b", "Rent", 100, "Housing", model.Monthly, model.Expense),
	}

	s, err := Summarize(items, model.Monthly)
	require.NoError(t, err)
	require.InDelta(t, 166.67, s.Totals.Income, 0.005)
	require.Equal(t, 100.0, s.Totals.Expenses)
	require.Equal(t, 0.0, s.Totals.Savings)
	require.InDelta(t, 66.67, s.Totals.Unallocated, 0.005)
}

func TestSummarize_TotalsAreConsistent(t *testing.T) {
	for _, f := range []model.Frequency{model.Weekly, model.Fortnightly, model.Monthly, model.Quarterly, model.Annually} {
		s, err := Summarize(fixture(), f)
		require.NoError(t, err)
		require.InDelta(t, s.Totals.Income-s.Totals.Expenses-s.Totals.Savings, s.Totals.Unallocated, 1e-9)

		for _, typ := range model.ItemTypes {
			var sum float64
			for _, ct := range s.CategoryTotals[typ] {
				sum += ct.Total
			}
			require.InDelta(t, s.Totals.ForType(typ), sum, 1e-9, "category totals for %s at %s", typ, f)
		}
	}
}

func TestSummarize_EmptyPartitionIsZero(t *testing.T) {
	items := []model.LineItem{item("a", "Rent", 100, "Housing", model.Monthly, model.Expense)}

	s, err := Summarize(items, model.Monthly)
	require.NoError(t, err)
	require.Zero(t, s.Totals.Income)
	require.Zero(t, s.Totals.Savings)
	require.Empty(t, s.CategoryTotals[model.Income])
	require.Equal(t, -100.0, s.Totals.Unallocated)
}

func TestSummarize_UnknownFrequency(t *testing.T) {
	_, err := Summarize(fixture(), "daily")
	require.Error(t, err)

	bad := []model.LineItem{item("x", "Odd", 1, "Misc", "hourly", model.Expense)}
	_, err = Summarize(bad, model.Monthly)
	require.Error(t, err)
}

func TestCategoryTotals_ExpenseByCategory(t *testing.T) {
	s, err := Summarize(fixture(), model.Annually)
	require.NoError(t, err)

	got := s.ExpenseByCategory()
	require.Equal(t, []model.CategoryTotal{
		{Category: "Food", Total: 5200},
		{Category: "Housing", Total: 1200},
	}, got)
}

func TestCategoryTotals_OmitsEmptyCategories(t *testing.T) {
	adjusted := []model.LineItem{item("1", "A", 10, "Kept", model.Monthly, model.Expense)}
	got := CategoryTotals(adjusted, []string{"Gone", "Kept"})
	require.Equal(t, []model.CategoryTotal{{Category: "Kept", Total: 10}}, got)
}

func TestCategoryTotalAt_MatchesAdjustedSum(t *testing.T) {
	items := fixture()
	want, err := Summarize(items, model.Monthly)
	require.NoError(t, err)

	got, err := CategoryTotalAt(want.Partitions.Expense, "Food", model.Monthly)
	require.NoError(t, err)
	require.InDelta(t, want.ExpenseByCategory()[0].Total, got, 1e-9)
}

func TestRankCategories_SortedWithShares(t *testing.T) {
	adjusted, err := Adjust(Partition(fixture()).Expense, model.Annually)
	require.NoError(t, err)

	ranked := RankCategories(adjusted)
	require.Len(t, ranked, 2)
	require.Equal(t, "Food", ranked[0].Category)
	require.Equal(t, 2, ranked[0].Items)
	require.InDelta(t, 5200.0/6400*100, ranked[0].SharePercent, 1e-9)
}

func TestSuggestCategory(t *testing.T) {
	existing := []string{"Groceries", "Housing & Utilities", "Car"}

	got, ok := SuggestCategory(existing, "Grocerys")
	require.True(t, ok)
	require.Equal(t, "Groceries", got)

	_, ok = SuggestCategory(existing, "groceries")
	require.False(t, ok, "exact match (case-insensitive) needs no suggestion")

	_, ok = SuggestCategory(existing, "Entertainment")
	require.False(t, ok)
}

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet[string](0)
	require.True(t, s.Add("b"))
	require.True(t, s.Add("a"))
	require.False(t, s.Add("b"))
	require.True(t, s.Contains("a"))
	require.Equal(t, 2, s.Len())
	require.Equal(t, []string{"b", "a"}, s.Values())
}

func TestFilterByCategory(t *testing.T) {
	got := FilterByCategory(fixture(), "foo")
	require.Equal(t, []string{"Groceries", "Takeaway"}, names(got))
	require.Len(t, FilterByName(fixture(), "SAL"), 1)
}

func names(items []model.LineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
