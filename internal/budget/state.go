// Package budget owns the live set of line items for one session and keeps
// the derived aggregates in step with every mutation.
package budget

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
)

var (
	// ErrInvalidItem is returned for items that are not structurally valid.
	ErrInvalidItem = errors.New("invalid line item")
	// ErrDuplicateID is returned when adding an item whose id is already live.
	ErrDuplicateID = errors.New("duplicate item id")
)

// Listener receives a copy of the recomputed summary after each change.
type Listener func(Change, pipeline.Summary)

// ChangeKind names the mutation that triggered a recompute.
type ChangeKind string

// Change kinds.
const (
	ChangeAdd       ChangeKind = "add"
	ChangeUpdate    ChangeKind = "update"
	ChangeRemove    ChangeKind = "remove"
	ChangeFrequency ChangeKind = "frequency"
	ChangeReplace   ChangeKind = "replace"
)

// Change describes one applied mutation.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	ItemID string     `json:"item_id,omitempty"`
}

// State is the item store plus the display frequency.
//
// A State is owned by a single session and is not safe for concurrent use;
// callers that share one across goroutines must serialise access.
type State struct {
	items     []model.LineItem
	frequency model.Frequency
	summary   pipeline.Summary

	newID     func() string
	listeners map[int]Listener
	nextSubID int
}

// Option customises a State.
type Option func(*State)

// WithIDGenerator replaces the uuid generator used for items added without an id.
func WithIDGenerator(fn func() string) Option {
	return func(s *State) { s.newID = fn }
}

// New creates a State holding items, displayed at the given frequency.
func New(items []model.LineItem, frequency model.Frequency, opts ...Option) (*State, error) {
	if !cadence.Valid(frequency) {
		return nil, &cadence.LookupError{Value: string(frequency)}
	}

	s := &State{
		frequency: frequency,
		newID:     uuid.NewString,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := s.prepare(items)
	if err != nil {
		return nil, err
	}
	s.items = loaded
	s.recompute()
	return s, nil
}

// NewDefault creates a State seeded with the default budget at monthly frequency.
func NewDefault(opts ...Option) *State {
	s, err := New(nil, model.Monthly, opts...)
	if err != nil {
		panic(err) // monthly is always in the table
	}
	seeded, err := s.prepare(DefaultItems(s.newID))
	if err != nil {
		panic(err) // default items are static and valid
	}
	s.items = seeded
	s.recompute()
	return s
}

// prepare validates a full collection, assigning ids where missing.
func (s *State) prepare(items []model.LineItem) ([]model.LineItem, error) {
	next := make([]model.LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = s.newID()
		}
		if err := validate(it); err != nil {
			return nil, err
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = struct{}{}
		next = append(next, it)
	}
	return next, nil
}

func validate(it model.LineItem) error {
	if !cadence.Valid(it.Frequency) {
		return fmt.Errorf("%w %q: %w", ErrInvalidItem, it.Name, &cadence.LookupError{Value: string(it.Frequency)})
	}
	if !it.Type.Valid() {
		return fmt.Errorf("%w %q: unknown type %q", ErrInvalidItem, it.Name, it.Type)
	}
	return nil
}

// recompute reruns the whole derivation. Every item and the display frequency
// have been validated, so the pipeline cannot fail here.
func (s *State) recompute() {
	summary, err := pipeline.Summarize(s.items, s.frequency)
	if err != nil {
		panic(fmt.Sprintf("budget: recompute on validated state: %v", err))
	}
	s.summary = summary
}

func (s *State) changed(c Change) {
	s.recompute()
	for _, l := range s.listeners {
		l(c, s.summary.Clone())
	}
}

func (s *State) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// AddItem appends item, generating an id when it has none, and returns the
// stored copy.
func (s *State) AddItem(item model.LineItem) (model.LineItem, error) {
	if item.ID == "" {
		item.ID = s.newID()
	}
	if err := validate(item); err != nil {
		return model.LineItem{}, err
	}
	if s.indexOf(item.ID) >= 0 {
		return model.LineItem{}, fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
	}

	s.items = append(s.items, item)
	s.changed(Change{Kind: ChangeAdd, ItemID: item.ID})
	return item, nil
}

// UpdateItem replaces the item with the same id, keeping its position.
// An unknown id is a no-op and reports false.
func (s *State) UpdateItem(item model.LineItem) (bool, error) {
	idx := s.indexOf(item.ID)
	if idx < 0 {
		return false, nil
	}
	if err := validate(item); err != nil {
		return false, err
	}

	s.items[idx] = item
	s.changed(Change{Kind: ChangeUpdate, ItemID: item.ID})
	return true, nil
}

// RemoveItem deletes the item with the given id. An unknown id is a no-op
// and reports false.
func (s *State) RemoveItem(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.changed(Change{Kind: ChangeRemove, ItemID: id})
	return true
}

// SetFrequency changes the display frequency and recomputes every aggregate.
func (s *State) SetFrequency(f model.Frequency) error {
	if !cadence.Valid(f) {
		return &cadence.LookupError{Value: string(f)}
	}
	s.frequency = f
	s.changed(Change{Kind: ChangeFrequency})
	return nil
}

// Replace swaps the whole collection, validating every item first.
// On error the previous collection is kept.
func (s *State) Replace(items []model.LineItem) error {
	next, err := s.prepare(items)
	if err != nil {
		return err
	}
	s.items = next
	s.changed(Change{Kind: ChangeReplace})
	return nil
}

// Subscribe registers l to be called after every change and returns a func
// that removes it.
func (s *State) Subscribe(l Listener) (unsubscribe func()) {
	s.nextSubID++
	id := s.nextSubID
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

// Frequency returns the display frequency.
func (s *State) Frequency() model.Frequency { return s.frequency }

// Items returns a copy of the raw collection in insertion order.
func (s *State) Items() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Item returns the item with the given id.
func (s *State) Item(id string) (model.LineItem, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return model.LineItem{}, false
	}
	return s.items[idx], true
}

// Len returns the number of live items.
func (s *State) Len() int { return len(s.items) }

// Summary returns a copy of the current derived views.
func (s *State) Summary() pipeline.Summary { return s.summary.Clone() }

// Income returns the raw income partition.
func (s *State) Income() []model.LineItem { return clone(s.summary.Partitions.Income) }

// Expenses returns the raw expense partition.
func (s *State) Expenses() []model.LineItem { return clone(s.summary.Partitions.Expense) }

// Savings returns the raw savings partition.
func (s *State) Savings() []model.LineItem { return clone(s.summary.Partitions.Savings) }

// ItemsOfType returns the raw partition for t.
func (s *State) ItemsOfType(t model.ItemType) []model.LineItem {
	return clone(s.summary.Partitions.Of(t))
}

// IncomeCategories returns income categories in first-seen order.
func (s *State) IncomeCategories() []string { return cloneStrings(s.summary.Categories[model.Income]) }

// ExpenseCategories returns expense categories in first-seen order.
func (s *State) ExpenseCategories() []string {
	return cloneStrings(s.summary.Categories[model.Expense])
}

// SavingsCategories returns savings categories in first-seen order.
func (s *State) SavingsCategories() []string {
	return cloneStrings(s.summary.Categories[model.Savings])
}

// AdjustedIncome returns income items converted to the display frequency.
func (s *State) AdjustedIncome() []model.LineItem { return clone(s.summary.Adjusted.Income) }

// AdjustedExpenses returns expense items converted to the display frequency.
func (s *State) AdjustedExpenses() []model.LineItem { return clone(s.summary.Adjusted.Expense) }

// AdjustedSavings returns savings items converted to the display frequency.
func (s *State) AdjustedSavings() []model.LineItem { return clone(s.summary.Adjusted.Savings) }

// ExpenseByCategory returns per-category expense totals at the display frequency.
func (s *State) ExpenseByCategory() []model.CategoryTotal {
	return s.CategoryTotals(model.Expense)
}

// CategoryTotals returns per-category totals for any type.
func (s *State) CategoryTotals(t model.ItemType) []model.CategoryTotal {
	src := s.summary.CategoryTotals[t]
	out := make([]model.CategoryTotal, len(src))
	copy(out, src)
	return out
}

// Totals returns the four scalar aggregates.
func (s *State) Totals() model.Totals { return s.summary.Totals }

// TotalIncome returns total income at the display frequency.
func (s *State) TotalIncome() float64 { return s.summary.Totals.Income }

// TotalExpenses returns total expenses at the display frequency.
func (s *State) TotalExpenses() float64 { return s.summary.Totals.Expenses }

// TotalSavings returns total savings at the display frequency.
func (s *State) TotalSavings() float64 { return s.summary.Totals.Savings }

// Unallocated returns income minus expenses minus savings. May be negative.
func (s *State) Unallocated() float64 { return s.summary.Totals.Unallocated }

func clone(items []model.LineItem) []model.LineItem {
	if items == nil {
		return nil
	}
	out := make([]model.LineItem, len(items))
	copy(out, items)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
