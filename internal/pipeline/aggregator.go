// Package pipeline derives budget aggregates from a snapshot of line items.
//
// Every function here is pure: it reads the items it is given and returns new
// values. Recomputation order follows the data dependencies:
// partition -> categories -> adjusted amounts -> category totals -> totals.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
)

// Partitions holds line items split by type. Each slice keeps the input order.
type Partitions struct {
	Income  []model.LineItem
	Expense []model.LineItem
	Savings []model.LineItem
}

// Of returns the partition for a single type.
func (p Partitions) Of(t model.ItemType) []model.LineItem {
	switch t {
	case model.Income:
		return p.Income
	case model.Expense:
		return p.Expense
	case model.Savings:
		return p.Savings
	}
	return nil
}

// Summary is the full set of derived views for one frequency.
type Summary struct {
	Frequency      model.Frequency
	Partitions     Partitions
	Adjusted       Partitions
	Categories     map[model.ItemType][]string
	CategoryTotals map[model.ItemType][]model.CategoryTotal
	Totals         model.Totals
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s Summary) Clone() Summary {
	out := s
	out.Partitions = s.Partitions.clone()
	out.Adjusted = s.Adjusted.clone()
	if s.Categories != nil {
		out.Categories = make(map[model.ItemType][]string, len(s.Categories))
		for t, cs := range s.Categories {
			out.Categories[t] = cloneSlice(cs)
		}
	}
	if s.CategoryTotals != nil {
		out.CategoryTotals = make(map[model.ItemType][]model.CategoryTotal, len(s.CategoryTotals))
		for t, ct := range s.CategoryTotals {
			out.CategoryTotals[t] = cloneSlice(ct)
		}
	}
	return out
}

func (p Partitions) clone() Partitions {
	return Partitions{
		Income:  cloneSlice(p.Income),
		Expense: cloneSlice(p.Expense),
		Savings: cloneSlice(p.Savings),
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// ExpenseByCategory returns the expense category totals.
func (s Summary) ExpenseByCategory() []model.CategoryTotal {
	return s.CategoryTotals[model.Expense]
}

// Partition splits items by type, preserving insertion order.
// Items with an unknown type are dropped.
func Partition(items []model.LineItem) Partitions {
	var p Partitions
	for _, it := range items {
		switch it.Type {
		case model.Income:
			p.Income = append(p.Income, it)
		case model.Expense:
			p.Expense = append(p.Expense, it)
		case model.Savings:
			p.Savings = append(p.Savings, it)
		}
	}
	return p
}

// Categories returns the distinct categories of items in first-seen order.
func Categories(items []model.LineItem) []string {
	set := NewOrderedSet[string](len(items))
	for _, it := range items {
		set.Add(it.Category)
	}
	return set.Values()
}

// Adjust returns copies of items with Amount converted to the given frequency.
func Adjust(items []model.LineItem, to model.Frequency) ([]model.LineItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]model.LineItem, len(items))
	for i, it := range items {
		amount, err := cadence.Convert(it.Amount, it.Frequency, to)
		if err != nil {
			return nil, fmt.Errorf("adjusting %q: %w", it.Name, err)
		}
		it.Amount = amount
		out[i] = it
	}
	return out, nil
}

// Sum adds up item amounts as given. An empty slice sums to 0.
func Sum(items []model.LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return total
}

// CategoryTotals sums adjusted amounts per category, in the order categories
// are given. Categories with no matching items are omitted.
func CategoryTotals(adjusted []model.LineItem, categories []string) []model.CategoryTotal {
	sums := make(map[string]float64, len(categories))
	counts := make(map[string]int, len(categories))
	for _, it := range adjusted {
		sums[it.Category] += it.Amount
		counts[it.Category]++
	}

	totals := make([]model.CategoryTotal, 0, len(categories))
	for _, c := range categories {
		if counts[c] == 0 {
			continue
		}
		totals = append(totals, model.CategoryTotal{Category: c, Total: sums[c]})
	}
	return totals
}

// Unallocated is income minus expenses minus savings. Negative means overspent.
func Unallocated(income, expenses, savings float64) float64 {
	return income - expenses - savings
}

// Summarize runs the whole derivation for items at the given frequency.
func Summarize(items []model.LineItem, to model.Frequency) (Summary, error) {
	if !cadence.Valid(to) {
		return Summary{}, &cadence.LookupError{Value: string(to)}
	}

	s := Summary{
		Frequency:      to,
		Partitions:     Partition(items),
		Categories:     make(map[model.ItemType][]string, len(model.ItemTypes)),
		CategoryTotals: make(map[model.ItemType][]model.CategoryTotal, len(model.ItemTypes)),
	}

	for _, t := range model.ItemTypes {
		s.Categories[t] = Categories(s.Partitions.Of(t))
	}

	var err error
	if s.Adjusted.Income, err = Adjust(s.Partitions.Income, to); err != nil {
		return Summary{}, err
	}
	if s.Adjusted.Expense, err = Adjust(s.Partitions.Expense, to); err != nil {
		return Summary{}, err
	}
	if s.Adjusted.Savings, err = Adjust(s.Partitions.Savings, to); err != nil {
		return Summary{}, err
	}

	for _, t := range model.ItemTypes {
		s.CategoryTotals[t] = CategoryTotals(s.Adjusted.Of(t), s.Categories[t])
	}

	s.Totals.Income = Sum(s.Adjusted.Income)
	s.Totals.Expenses = Sum(s.Adjusted.Expense)
	s.Totals.Savings = Sum(s.Adjusted.Savings)
	s.Totals.Unallocated = Unallocated(s.Totals.Income, s.Totals.Expenses, s.Totals.Savings)

	return s, nil
}

// FilterByCategory returns items whose category contains the substring.
func FilterByCategory(items []model.LineItem, category string) []model.LineItem {
	if category == "" {
		return items
	}
	var result []model.LineItem
	for _, it := range items {
		if containsIgnoreCase(it.Category, category) {
			result = append(result, it)
		}
	}
	return result
}

// FilterByName returns items whose name contains the substring.
func FilterByName(items []model.LineItem, name string) []model.LineItem {
	if name == "" {
		return items
	}
	var result []model.LineItem
	for _, it := range items {
		if containsIgnoreCase(it.Name, name) {
			result = append(result, it)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
