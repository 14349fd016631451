package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/model"
	"github.com/theirongolddev/cadence/internal/pipeline"
)

// DefaultSessionID names the session backed by the store, when there is one.
const DefaultSessionID = "default"

// session wraps one budget.State. mu guards the state; evMu guards the
// event log so SSE readers never wait on a mutation.
type session struct {
	id        string
	createdAt time.Time

	mu    sync.Mutex
	state *budget.State

	evMu   sync.Mutex
	log    *eventLog
	totals model.Totals
}

func newSession(id string, st *budget.State, eventsBuffer int, now time.Time) *session {
	sess := &session{
		id:        id,
		createdAt: now,
		state:     st,
		log:       newEventLog(eventsBuffer),
		totals:    st.Totals(),
	}
	st.Subscribe(sess.onChange)
	return sess
}

// onChange runs under mu, right after the state recomputed.
func (s *session) onChange(c budget.Change, sum pipeline.Summary) {
	change := c

	s.evMu.Lock()
	defer s.evMu.Unlock()

	delta := diffTotals(s.totals, sum.Totals)
	s.totals = sum.Totals
	s.log.publish(Event{
		Type:      EventChanged,
		SessionID: s.id,
		Timestamp: time.Now(),
		Change:    &change,
		Frequency: sum.Frequency,
		Totals:    sum.Totals,
		Delta:     delta,
		Moved:     !delta.isZero(),
	})
}

func (s *session) currentEvent() Event {
	s.mu.Lock()
	freq, totals := s.state.Frequency(), s.state.Totals()
	s.mu.Unlock()

	return Event{
		Type:      EventSnapshot,
		SessionID: s.id,
		Timestamp: time.Now(),
		Frequency: freq,
		Totals:    totals,
	}
}

// SessionView is the JSON snapshot of a session.
type SessionView struct {
	ID             string                                   `json:"id"`
	CreatedAt      time.Time                                `json:"created_at"`
	Frequency      model.Frequency                          `json:"frequency"`
	Items          []model.LineItem                         `json:"items"`
	Adjusted       map[model.ItemType][]model.LineItem      `json:"adjusted"`
	Categories     map[model.ItemType][]string              `json:"categories"`
	CategoryTotals map[model.ItemType][]model.CategoryTotal `json:"category_totals"`
	Totals         model.Totals                             `json:"totals"`
}

func (s *session) view() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	v := SessionView{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Frequency: st.Frequency(),
		Items:     nonNil(st.Items()),
		Adjusted: map[model.ItemType][]model.LineItem{
			model.Income:  nonNil(st.AdjustedIncome()),
			model.Expense: nonNil(st.AdjustedExpenses()),
			model.Savings: nonNil(st.AdjustedSavings()),
		},
		Categories: map[model.ItemType][]string{
			model.Income:  nonNil(st.IncomeCategories()),
			model.Expense: nonNil(st.ExpenseCategories()),
			model.Savings: nonNil(st.SavingsCategories()),
		},
		CategoryTotals: make(map[model.ItemType][]model.CategoryTotal, len(model.ItemTypes)),
		Totals:         st.Totals(),
	}
	for _, t := range model.ItemTypes {
		v.CategoryTotals[t] = nonNil(st.CategoryTotals(t))
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// registry holds the live sessions. Sessions never share a State.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) add(sess *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.id] = sess
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// all returns sessions ordered by creation time.
func (r *registry) all() []*session {
	r.mu.RLock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

func newSessionID() string {
	return uuid.NewString()
}
