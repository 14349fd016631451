package store

import (
	"fmt"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
)

// LoadOptions controls LoadState.
type LoadOptions struct {
	// Frequency is used when the store has no saved display frequency.
	Frequency model.Frequency
	// SeedDefaults writes the default budget into a store that has never
	// been seeded.
	SeedDefaults bool
	// Override, when set, wins over the saved display frequency.
	Override model.Frequency
}

// LoadState builds a budget.State from the stored items and settings.
func (s *Store) LoadState(opts LoadOptions, stateOpts ...budget.Option) (*budget.State, error) {
	items, err := s.LoadItems()
	if err != nil {
		return nil, err
	}

	freq := opts.Frequency
	if saved, ok, err := s.LoadFrequency(); err != nil {
		return nil, err
	} else if ok && cadence.Valid(saved) {
		freq = saved
	}
	if opts.Override != "" {
		freq = opts.Override
	}
	if freq == "" {
		freq = model.Monthly
	}

	seeded, err := s.Seeded()
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && !seeded && opts.SeedDefaults {
		st := budget.NewDefault(stateOpts...)
		if err := st.SetFrequency(freq); err != nil {
			return nil, err
		}
		if err := s.SaveItems(st.Items()); err != nil {
			return nil, fmt.Errorf("seeding default budget: %w", err)
		}
		if err := s.MarkSeeded(); err != nil {
			return nil, err
		}
		return st, nil
	}

	st, err := budget.New(items, freq, stateOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading stored budget: %w", err)
	}
	return st, nil
}

// Attach saves st back to the store after every change. Frequency changes
// only touch the settings table. Errors go to onErr.
func (s *Store) Attach(st *budget.State, onErr func(error)) (detach func()) {
	return st.Subscribe(func(c budget.Change, sum pipeline.Summary) {
		var err error
		if c.Kind == budget.ChangeFrequency {
			err = s.SaveFrequency(sum.Frequency)
		} else {
			err = s.SaveItems(st.Items())
		}
		if err != nil && onErr != nil {
			onErr(err)
		}
	})
}
