// Package model defines domain types for cadence budgets.
package model

import (
	"fmt"
	"strings"
)

// Frequency identifies how often a line item recurs.
type Frequency string

// Supported frequencies. Annual multipliers live in the cadence package.
const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
	Quarterly   Frequency = "quarterly"
	Annually    Frequency = "annually"
)

// ItemType is the partition a line item belongs to.
type ItemType string

// Item types, in report order.
const (
	Income  ItemType = "Income"
	Expense ItemType = "Expense"
	Savings ItemType = "Savings"
)

// ItemTypes lists every type in the fixed Income -> Expense -> Savings order.
var ItemTypes = []ItemType{Income, Expense, Savings}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case Income, Expense, Savings:
		return true
	}
	return false
}

// ParseItemType resolves user input such as "income", "Expenses" or
// "saving" to an ItemType.
func ParseItemType(s string) (ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense", "expenses":
		return Expense, nil
	case "savings", "saving":
		return Savings, nil
	}
	return "", fmt.Errorf("unknown item type %q (want income, expense or savings)", s)
}

// LineItem is one recurring budget entry. Amount is denominated in the
// item's own Frequency.
type LineItem struct {
	ID        string    `json:"id" yaml:"id,omitempty" toml:"id,omitempty"`
	Name      string    `json:"name" yaml:"name" toml:"name"`
	Amount    float64   `json:"amount" yaml:"amount" toml:"amount"`
	Category  string    `json:"category" yaml:"category" toml:"category"`
	Frequency Frequency `json:"frequency" yaml:"frequency" toml:"frequency"`
	Type      ItemType  `json:"type" yaml:"type" toml:"type"`
}

// CategoryTotal is the summed amount of one category at a given frequency.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Totals holds the four scalar aggregates at a given frequency.
type Totals struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Savings     float64 `json:"savings"`
	Unallocated float64 `json:"unallocated"`
}

// ForType returns the total for a single item type.
func (t Totals) ForType(it ItemType) float64 {
	switch it {
	case Income:
		return t.Income
	case Expense:
		return t.Expenses
	case Savings:
		return t.Savings
	}
	return 0
}
