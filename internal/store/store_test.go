package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cadence/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadItems_PreservesOrder(t *testing.T) {
	s := openTemp(t)
	items := []model.LineItem{
		{ID: "z", Name: "Salary", Amount: 1000, Category: "Wages", Frequency: model.Monthly, Type: model.Income},
		{ID: "a", Name: "Rent", Amount: 99.95, Category: "Housing", Frequency: model.Weekly, Type: model.Expense},
		{ID: "m", Name: "ETF", Amount: 200, Category: "Investments", Frequency: model.Quarterly, Type: model.Savings},
	}
	require.NoError(t, s.SaveItems(items))

	got, err := s.LoadItems()
	require.NoError(t, err)
	require.Equal(t, items, got)

	require.NoError(t, s.SaveItems(items[1:]))
	got, err = s.LoadItems()
	require.NoError(t, err)
	require.Equal(t, items[1:], got)

	n, err := s.ItemCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestSaveItems_DuplicateIDRollsBack(t *testing.T) {
	s := openTemp(t)
	keep := []model.LineItem{{ID: "k", Name: "Keep", Frequency: model.Monthly, Type: model.Income}}
	require.NoError(t, s.SaveItems(keep))

	err := s.SaveItems([]model.LineItem{
		{ID: "x", Name: "One", Frequency: model.Monthly, Type: model.Income},
		{ID: "x", Name: "Two", Frequency: model.Monthly, Type: model.Income},
	})
	require.Error(t, err)

	got, err := s.LoadItems()
	require.NoError(t, err)
	require.Equal(t, keep, got)
}

func TestFrequencySetting(t *testing.T) {
	s := openTemp(t)

	_, ok, err := s.LoadFrequency()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SaveFrequency(model.Weekly))
	require.NoError(t, s.SaveFrequency(model.Annually))

	f, ok, err := s.LoadFrequency()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.Annually, f)
}

func TestSeededFlag(t *testing.T) {
	s := openTemp(t)

	seeded, err := s.Seeded()
	require.NoError(t, err)
	require.False(t, seeded)

	require.NoError(t, s.MarkSeeded())
	seeded, err = s.Seeded()
	require.NoError(t, err)
	require.True(t, seeded)
}

func TestRecentExports(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, s.RecordExport("/tmp/a.csv", 3))
	require.NoError(t, s.RecordExport("/tmp/b.csv", 4))
	require.NoError(t, s.RecordExport("/tmp/c.csv", 5))

	recs, err := s.RecentExports(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "/tmp/c.csv", recs[0].Path)
	require.Equal(t, 5, recs[0].ItemCount)
	require.True(t, base.Add(3*time.Minute).Equal(recs[0].CreatedAt))
	require.Equal(t, "/tmp/b.csv", recs[1].Path)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveFrequency(model.Fortnightly))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	f, ok, err := s.LoadFrequency()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.Fortnightly, f)
}

func TestLoadState_SeedsOnce(t *testing.T) {
	s := openTemp(t)

	st, err := s.LoadState(LoadOptions{Frequency: model.Monthly, SeedDefaults: true})
	require.NoError(t, err)
	require.Equal(t, 25, st.Len())

	n, err := s.ItemCount()
	require.NoError(t, err)
	require.Equal(t, 25, n)

	detach := s.Attach(st, func(err error) { t.Errorf("persist: %v", err) })
	require.NoError(t, st.Replace(nil))
	detach()

	st, err = s.LoadState(LoadOptions{Frequency: model.Monthly, SeedDefaults: true})
	require.NoError(t, err)
	require.Zero(t, st.Len(), "an emptied budget must not be reseeded")
}

func TestAttach_PersistsMutations(t *testing.T) {
	s := openTemp(t)
	st, err := s.LoadState(LoadOptions{Frequency: model.Monthly})
	require.NoError(t, err)
	require.Zero(t, st.Len())

	s.Attach(st, func(err error) { t.Errorf("persist: %v", err) })

	added, err := st.AddItem(model.LineItem{Name: "Rent", Amount: 400, Category: "Housing", Frequency: model.Weekly, Type: model.Expense})
	require.NoError(t, err)
	require.NoError(t, st.SetFrequency(model.Annually))

	reloaded, err := s.LoadState(LoadOptions{Frequency: model.Monthly})
	require.NoError(t, err)
	require.Equal(t, model.Annually, reloaded.Frequency())
	require.Equal(t, []model.LineItem{added}, reloaded.Items())
	require.Equal(t, 400.0*52, reloaded.TotalExpenses())

	overridden, err := s.LoadState(LoadOptions{Frequency: model.Monthly, Override: model.Weekly})
	require.NoError(t, err)
	require.Equal(t, model.Weekly, overridden.Frequency())
}

func TestClosedStoreErrorsAreWrapped(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Close())

	err := s.SaveItems([]model.LineItem{{ID: "a", Name: "Rent", Frequency: model.Monthly, Type: model.Expense}})
	require.ErrorContains(t, err, "beginning save")

	_, err = s.ItemCount()
	require.ErrorContains(t, err, "counting items")
}
