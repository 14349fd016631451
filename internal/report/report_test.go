package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
)

func sampleItems() []model.LineItem {
	return []model.LineItem{
		{ID: "1", Name: "Salary", Amount: 1000, Category: "Wages", Frequency: model.Monthly, Type: model.Income},
		{ID: "2", Name: "Rent", Amount: 100, Category: "Housing", Frequency: model.Monthly, Type: model.Expense},
		{ID: "3", Name: "ETF", Amount: 200, Category: "Investments", Frequency: model.Monthly, Type: model.Savings},
		{ID: "4", Name: "Groceries", Amount: 50, Category: "Food", Frequency: model.Weekly, Type: model.Expense},
	}
}

func TestCSV_ExactOutput(t *testing.T) {
	got, err := CSV(sampleItems())
	require.NoError(t, err)

	want := strings.Join([]string{
		"Type,Name,Category,Amount,Frequency,Monthly Total,Annual Total",
		"Income",
		`,"Salary","Wages",1000,monthly,1000.00,12000.00`,
		"Income Total,,,,1000.00,12000.00",
		"",
		"Expenses",
		`,"Rent","Housing",100,monthly,100.00,1200.00`,
		`,"Groceries","Food",50,weekly,216.67,2600.00`,
		"Expenses Total,,,,316.67,3800.00",
		"",
		"Savings",
		`,"ETF","Investments",200,monthly,200.00,2400.00`,
		"Savings Total,,,,200.00,2400.00",
		"",
		"Unallocated,,,,483.33,5800.00",
	}, "\n")
	require.Equal(t, want, got)
	require.False(t, strings.HasSuffix(got, "\n"))
}

func TestCSV_NoSavingsSection(t *testing.T) {
	items := []model.LineItem{
		{Name: "Pay", Amount: 2000, Category: "Wages", Frequency: model.Fortnightly, Type: model.Income},
		{Name: "Rates", Amount: 300, Category: "Housing", Frequency: model.Quarterly, Type: model.Expense},
	}

	got, err := CSV(items)
	require.NoError(t, err)

	require.NotContains(t, got, "\nSavings")
	require.NotContains(t, got, "Savings Total")
	lines := strings.Split(got, "\n")
	require.Equal(t, "Unallocated,,,,4233.33,50800.00", lines[len(lines)-1])
	require.Equal(t, "", lines[len(lines)-2])
}

func TestCSV_EmptyBudget(t *testing.T) {
	got, err := CSV(nil)
	require.NoError(t, err)
	require.Equal(t, Header+"\nUnallocated,,,,0.00,0.00", got)
}

func TestCSV_IgnoresDisplayFrequencyAndKeepsRawAmount(t *testing.T) {
	items := []model.LineItem{
		{Name: "Bonus", Amount: 1234.5, Category: "Wages", Frequency: model.Annually, Type: model.Income},
	}
	got, err := CSV(items)
	require.NoError(t, err)
	require.Contains(t, got, `,"Bonus","Wages",1234.5,annually,102.88,1234.50`)
}

func TestCSV_QuotesEmbeddedQuotes(t *testing.T) {
	items := []model.LineItem{
		{Name: `The "Big" Shop, Inc`, Amount: 1, Category: "Food", Frequency: model.Monthly, Type: model.Expense},
	}
	got, err := CSV(items)
	require.NoError(t, err)
	require.Contains(t, got, `,"The ""Big"" Shop, Inc","Food",1,monthly,1.00,12.00`)
}

func TestCSV_OverspentIsNegative(t *testing.T) {
	items := []model.LineItem{
		{Name: "Rent", Amount: 10, Category: "Housing", Frequency: model.Monthly, Type: model.Expense},
	}
	got, err := CSV(items)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(got, "Unallocated,,,,-10.00,-120.00"))
}

func TestBuild_UnknownFrequency(t *testing.T) {
	_, err := Build([]model.LineItem{{Name: "X", Amount: 1, Frequency: "daily", Type: model.Income}})
	require.ErrorIs(t, err, cadence.ErrUnknownFrequency)
}

func TestFormatFixed2(t *testing.T) {
	cases := map[float64]string{
		0:             "0.00",
		1:             "1.00",
		0.125:         "0.13",
		-0.125:        "-0.13",
		0.375:         "0.38",
		1.005:         "1.00", // 1.00499999... in binary
		2.675:         "2.67",
		216.666666667: "216.67",
		-10:           "-10.00",
		1e9:           "1000000000.00",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatFixed2(in), "FormatFixed2(%v)", in)
	}
}

func TestFileName(t *testing.T) {
	day := time.Date(2026, time.March, 7, 15, 4, 5, 0, time.UTC)
	require.Equal(t, "budget-07-03-2026.csv", FileName(day))
}

func TestFileSink_WritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	r, err := Build(sampleItems())
	require.NoError(t, err)

	path, err := FileSink{Dir: dir}.Put(context.Background(), "budget.csv", r)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "budget.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, _ := CSV(sampleItems())
	require.Equal(t, want, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
}

func TestExport_UsesDatedName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.Local)

	path, err := Export(context.Background(), FileSink{Dir: dir}, sampleItems(), now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "budget-16-10-2026.csv"), path)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	r, err := Build(sampleItems()[:1])
	require.NoError(t, err)

	where, err := WriterSink{W: &buf}.Put(context.Background(), "ignored.csv", r)
	require.NoError(t, err)
	require.Equal(t, "-", where)
	require.True(t, strings.HasPrefix(buf.String(), Header+"\nIncome\n"))
}

func TestSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileSink{Dir: t.TempDir()}.Put(ctx, "x.csv", Report{})
	require.ErrorIs(t, err, context.Canceled)
}
