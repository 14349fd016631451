package budget

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newState(t *testing.T, items ...model.LineItem) *State {
	t.Helper()
	s, err := New(items, model.Monthly, WithIDGenerator(seqIDs()))
	require.NoError(t, err)
	return s
}

func requireConsistent(t *testing.T, s *State) {
	t.Helper()
	require.InDelta(t, s.TotalIncome()-s.TotalExpenses()-s.TotalSavings(), s.Unallocated(), 1e-9)

	for _, typ := range model.ItemTypes {
		var sum float64
		for _, ct := range s.CategoryTotals(typ) {
			sum += ct.Total
		}
		require.InDelta(t, s.Totals().ForType(typ), sum, 1e-6, "category totals for %s", typ)
	}
}

func TestNewDefault_Seeded(t *testing.T) {
	s := NewDefault(WithIDGenerator(seqIDs()))

	require.Equal(t, 25, s.Len())
	require.Equal(t, model.Monthly, s.Frequency())
	require.Len(t, s.Income(), 6)
	require.Len(t, s.Expenses(), 16)
	require.Len(t, s.Savings(), 3)
	require.Equal(t, []string{"Wages & Salary", "Investments"}, s.IncomeCategories())
	require.Equal(t, []string{
		"Housing & Utilities", "Food", "Health", "Car", "Entertainment & Leisure",
	}, s.ExpenseCategories())
	require.Equal(t, []string{"Cash Savings", "Superannuation", "Investments"}, s.SavingsCategories())
	requireConsistent(t, s)
}

func TestNewDefault_UsesUUIDs(t *testing.T) {
	s := NewDefault()
	seen := make(map[string]struct{})
	for _, it := range s.Items() {
		require.Len(t, it.ID, 36)
		_, dup := seen[it.ID]
		require.False(t, dup)
		seen[it.ID] = struct{}{}
	}
}

func TestNew_RejectsUnknownFrequency(t *testing.T) {
	_, err := New(nil, "daily")
	require.ErrorIs(t, err, cadence.ErrUnknownFrequency)
}

func TestAddItem_AdjustsToDisplayFrequency(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.SetFrequency(model.Annually))

	added, err := s.AddItem(model.LineItem{
		Name: "Salary", Amount: 1000, Category: "Wages", Frequency: model.Monthly, Type: model.Income,
	})
	require.NoError(t, err)
	require.Equal(t, "id-1", added.ID)

	adjusted := s.AdjustedIncome()
	require.Len(t, adjusted, 1)
	require.Equal(t, 12000.0, adjusted[0].Amount)
	require.Equal(t, 12000.0, s.TotalIncome())
}

func TestAddItem_Rejections(t *testing.T) {
	s := newState(t, model.LineItem{ID: "x", Name: "A", Amount: 1, Category: "C", Frequency: model.Monthly, Type: model.Expense})

	_, err := s.AddItem(model.LineItem{ID: "x", Name: "B", Frequency: model.Monthly, Type: model.Expense})
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = s.AddItem(model.LineItem{Name: "C", Frequency: "daily", Type: model.Expense})
	require.ErrorIs(t, err, ErrInvalidItem)
	require.ErrorIs(t, err, cadence.ErrUnknownFrequency)

	_, err = s.AddItem(model.LineItem{Name: "D", Frequency: model.Monthly, Type: "Debt"})
	require.ErrorIs(t, err, ErrInvalidItem)

	require.Equal(t, 1, s.Len())
}

func TestTwoItemScenario(t *testing.T) {
	s := newState(t,
		model.LineItem{Name: "Dividends", Amount: 500, Category: "Investments", Frequency: model.Quarterly, Type: model.Income},
		model.LineItem{Name: "Rent", Amount: 100, Category: "Housing", Frequency: model.Monthly, Type: model.Expense},
	)

	require.InDelta(t, 166.67, s.TotalIncome(), 0.005)
	require.Equal(t, 100.0, s.TotalExpenses())
	require.InDelta(t, 66.67, s.Unallocated(), 0.005)
}

func TestRemoveItem_LastInCategoryDisappears(t *testing.T) {
	s := newState(t,
		model.LineItem{ID: "a", Name: "Gym", Amount: 30, Category: "Health", Frequency: model.Monthly, Type: model.Expense},
		model.LineItem{ID: "b", Name: "Fuel", Amount: 50, Category: "Car", Frequency: model.Weekly, Type: model.Expense},
	)
	require.Equal(t, []string{"Health", "Car"}, s.ExpenseCategories())

	require.True(t, s.RemoveItem("a"))

	require.Equal(t, []string{"Car"}, s.ExpenseCategories())
	for _, ct := range s.ExpenseByCategory() {
		require.NotEqual(t, "Health", ct.Category)
	}
	require.InDelta(t, 50.0*52/12, s.TotalExpenses(), 1e-9)
	requireConsistent(t, s)
}

func TestUpdateItem_UnknownIDIsNoop(t *testing.T) {
	s := newState(t,
		model.LineItem{ID: "a", Name: "Gym", Amount: 30, Category: "Health", Frequency: model.Monthly, Type: model.Expense},
	)
	before := s.Items()

	updated, err := s.UpdateItem(model.LineItem{ID: "missing", Name: "Ghost", Amount: 1, Frequency: model.Monthly, Type: model.Income})
	require.NoError(t, err)
	require.False(t, updated)
	require.Equal(t, before, s.Items())

	require.False(t, s.RemoveItem("missing"))
	require.Equal(t, before, s.Items())
}

func TestUpdateItem_ChangesTypeInPlace(t *testing.T) {
	s := newState(t,
		model.LineItem{ID: "a", Name: "First", Amount: 10, Category: "X", Frequency: model.Monthly, Type: model.Expense},
		model.LineItem{ID: "b", Name: "Second", Amount: 20, Category: "Y", Frequency: model.Monthly, Type: model.Expense},
	)

	ok, err := s.UpdateItem(model.LineItem{ID: "a", Name: "First", Amount: 10, Category: "X", Frequency: model.Monthly, Type: model.Savings})
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "a", s.Items()[0].ID, "position must be preserved")
	require.Len(t, s.Expenses(), 1)
	require.Len(t, s.Savings(), 1)
	require.Equal(t, 20.0, s.TotalExpenses())
	require.Equal(t, 10.0, s.TotalSavings())
	require.Equal(t, -30.0, s.Unallocated())
}

func TestSetFrequency_SwitchingHasNoHiddenState(t *testing.T) {
	s := NewDefault(WithIDGenerator(seqIDs()))

	require.NoError(t, s.SetFrequency(model.Weekly))
	direct := s.AdjustedExpenses()

	require.NoError(t, s.SetFrequency(model.Quarterly))
	require.NoError(t, s.SetFrequency(model.Weekly))
	require.Equal(t, direct, s.AdjustedExpenses())

	err := s.SetFrequency("daily")
	require.True(t, errors.Is(err, cadence.ErrUnknownFrequency))
	require.Equal(t, model.Weekly, s.Frequency())
}

func TestRandomMutationsStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	freqs := cadence.Frequencies()
	s := newState(t)

	var ids []string
	for i := 0; i < 500; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(ids) == 0:
			it, err := s.AddItem(model.LineItem{
				Name:      fmt.Sprintf("item %d", i),
				Amount:    float64(rng.Intn(100000)) / 100,
				Category:  fmt.Sprintf("cat %d", rng.Intn(6)),
				Frequency: freqs[rng.Intn(len(freqs))],
				Type:      model.ItemTypes[rng.Intn(3)],
			})
			require.NoError(t, err)
			ids = append(ids, it.ID)
		case op == 1:
			idx := rng.Intn(len(ids))
			require.True(t, s.RemoveItem(ids[idx]))
			ids = append(ids[:idx], ids[idx+1:]...)
		case op == 2:
			id := ids[rng.Intn(len(ids))]
			it, ok := s.Item(id)
			require.True(t, ok)
			it.Amount = float64(rng.Intn(5000))
			it.Type = model.ItemTypes[rng.Intn(3)]
			updated, err := s.UpdateItem(it)
			require.NoError(t, err)
			require.True(t, updated)
		default:
			require.NoError(t, s.SetFrequency(freqs[rng.Intn(len(freqs))]))
		}
		requireConsistent(t, s)
		require.Equal(t, len(ids), s.Len())
	}
}

func TestSubscribe_NotifiedAfterRecompute(t *testing.T) {
	s := newState(t)

	var changes []Change
	var lastIncome float64
	unsubscribe := s.Subscribe(func(c Change, sum pipeline.Summary) {
		changes = append(changes, c)
		lastIncome = sum.Totals.Income
	})

	it, err := s.AddItem(model.LineItem{Name: "Pay", Amount: 100, Category: "Wages", Frequency: model.Weekly, Type: model.Income})
	require.NoError(t, err)
	require.InDelta(t, 100.0*52/12, lastIncome, 1e-9)

	require.NoError(t, s.SetFrequency(model.Weekly))
	require.Equal(t, 100.0, lastIncome)

	unsubscribe()
	s.RemoveItem(it.ID)

	require.Equal(t, []Change{
		{Kind: ChangeAdd, ItemID: it.ID},
		{Kind: ChangeFrequency},
	}, changes)
}

func TestReplace_KeepsPreviousOnError(t *testing.T) {
	s := newState(t, model.LineItem{ID: "a", Name: "Keep", Amount: 1, Category: "C", Frequency: model.Monthly, Type: model.Income})

	err := s.Replace([]model.LineItem{
		{ID: "x", Name: "One", Frequency: model.Monthly, Type: model.Income},
		{ID: "x", Name: "Two", Frequency: model.Monthly, Type: model.Income},
	})
	require.ErrorIs(t, err, ErrDuplicateID)
	require.Equal(t, "Keep", s.Items()[0].Name)

	require.NoError(t, s.Replace(nil))
	require.Zero(t, s.Len())
	require.Zero(t, s.Unallocated())
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := newState(t, model.LineItem{ID: "a", Name: "Pay", Amount: 5, Category: "C", Frequency: model.Monthly, Type: model.Income})

	items := s.Items()
	items[0].Amount = 999
	income := s.Income()
	income[0].Amount = 999

	got, _ := s.Item("a")
	require.Equal(t, 5.0, got.Amount)
	require.Equal(t, 5.0, s.TotalIncome())
}

func TestSummaryDoesNotAliasState(t *testing.T) {
	s := newState(t,
		model.LineItem{ID: "a", Name: "Rent", Amount: 1000, Category: "Housing", Frequency: model.Monthly, Type: model.Expense},
		model.LineItem{ID: "b", Name: "Pay", Amount: 5000, Category: "Salary", Frequency: model.Monthly, Type: model.Income},
	)

	sum := s.Summary()
	sum.Categories[model.Expense][0] = "Other"
	sum.CategoryTotals[model.Expense][0].Total = -1
	sum.Adjusted.Expense[0].Amount = 12345
	sum.Partitions.Income[0].Name = "Other"

	require.Equal(t, []string{"Housing"}, s.ExpenseCategories())
	require.Equal(t, []model.CategoryTotal{{Category: "Housing", Total: 1000}}, s.ExpenseByCategory())
	require.Equal(t, 1000.0, s.AdjustedExpenses()[0].Amount)
	require.Equal(t, "Pay", s.Income()[0].Name)

	var seen pipeline.Summary
	unsubscribe := s.Subscribe(func(_ Change, sum pipeline.Summary) {
		sum.Categories[model.Expense][0] = "Other"
		sum.Adjusted.Expense[0].Amount = 0
		seen = sum
	})
	defer unsubscribe()

	require.NoError(t, s.SetFrequency(model.Annually))
	require.Equal(t, "Other", seen.Categories[model.Expense][0])
	require.Equal(t, []string{"Housing"}, s.ExpenseCategories())
	require.Equal(t, 12000.0, s.AdjustedExpenses()[0].Amount)
	require.Equal(t, 12000.0, s.TotalExpenses())
}
