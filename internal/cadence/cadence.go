// Package cadence holds the frequency table and converts amounts between
// recurrence periods.
package cadence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/cadence/internal/model"
)

// ErrUnknownFrequency is returned (wrapped in a *LookupError) whenever a
// frequency is not present in the table.
var ErrUnknownFrequency = errors.New("unknown frequency")

// LookupError reports the frequency value that failed to resolve.
type LookupError struct {
	Value string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownFrequency, e.Value)
}

// Unwrap lets errors.Is match ErrUnknownFrequency.
func (e *LookupError) Unwrap() error {
	return ErrUnknownFrequency
}

// Entry describes one row of the frequency table.
type Entry struct {
	Frequency model.Frequency
	Label     string
	// PerYear is the number of occurrences in a year.
	PerYear float64
}

// table is ordered from the shortest period to the longest.
var table = []Entry{
	{Frequency: model.Weekly, Label: "Weekly", PerYear: 52},
	{Frequency: model.Fortnightly, Label: "Fortnightly", PerYear: 26},
	{Frequency: model.Monthly, Label: "Monthly", PerYear: 12},
	{Frequency: model.Quarterly, Label: "Quarterly", PerYear: 4},
	{Frequency: model.Annually, Label: "Annually", PerYear: 1},
}

var byFrequency = makeIndex(table)

func makeIndex(entries []Entry) map[model.Frequency]Entry {
	idx := make(map[model.Frequency]Entry, len(entries))
	for _, e := range entries {
		idx[e.Frequency] = e
	}
	return idx
}

var aliases = map[string]model.Frequency{
	"week":      model.Weekly,
	"wk":        model.Weekly,
	"fortnight": model.Fortnightly,
	"biweekly":  model.Fortnightly,
	"month":     model.Monthly,
	"mo":        model.Monthly,
	"quarter":   model.Quarterly,
	"qtr":       model.Quarterly,
	"year":      model.Annually,
	"yearly":    model.Annually,
	"annual":    model.Annually,
	"yr":        model.Annually,
}

// All returns the frequency table in ascending period order.
func All() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}

// Frequencies returns just the frequency keys in table order.
func Frequencies() []model.Frequency {
	out := make([]model.Frequency, len(table))
	for i, e := range table {
		out[i] = e.Frequency
	}
	return out
}

// Valid reports whether f is a key in the table.
func Valid(f model.Frequency) bool {
	_, ok := byFrequency[f]
	return ok
}

// Lookup returns the table entry for f.
func Lookup(f model.Frequency) (Entry, error) {
	e, ok := byFrequency[f]
	if !ok {
		return Entry{}, &LookupError{Value: string(f)}
	}
	return e, nil
}

// PerYear returns the annual multiplier for f.
func PerYear(f model.Frequency) (float64, error) {
	e, err := Lookup(f)
	if err != nil {
		return 0, err
	}
	return e.PerYear, nil
}

// Label returns the display label for f, or the raw value if unknown.
func Label(f model.Frequency) string {
	if e, ok := byFrequency[f]; ok {
		return e.Label
	}
	return string(f)
}

// Parse resolves user input to a frequency. Matching is case-insensitive and
// accepts common aliases such as "month" or "yearly".
func Parse(s string) (model.Frequency, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if f := model.Frequency(key); Valid(f) {
		return f, nil
	}
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", &LookupError{Value: s}
}

// Convert re-expresses amount, recorded at from, as an amount at to.
// The annual amount is the intermediate: amount * perYear(from) / perYear(to).
func Convert(amount float64, from, to model.Frequency) (float64, error) {
	fromEntry, err := Lookup(from)
	if err != nil {
		return 0, err
	}
	toEntry, err := Lookup(to)
	if err != nil {
		return 0, err
	}
	if from == to {
		return amount, nil
	}
	return amount * fromEntry.PerYear / toEntry.PerYear, nil
}

// MustConvert is Convert for frequencies already known to be valid.
// It panics on a lookup failure.
func MustConvert(amount float64, from, to model.Frequency) float64 {
	v, err := Convert(amount, from, to)
	if err != nil {
		panic(err)
	}
	return v
}

// Next returns the frequency after f in table order, wrapping around.
func Next(f model.Frequency) model.Frequency {
	return step(f, 1)
}

// Prev returns the frequency before f in table order, wrapping around.
func Prev(f model.Frequency) model.Frequency {
	return step(f, -1)
}

func step(f model.Frequency, delta int) model.Frequency {
	for i, e := range table {
		if e.Frequency == f {
			return table[(i+delta+len(table))%len(table)].Frequency
		}
	}
	return model.Monthly
}
