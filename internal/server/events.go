package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/theirongolddev/cadence/internal/budget"
	"github.com/theirongolddev/cadence/internal/model"
)

// Event types.
const (
	EventSnapshot = "snapshot"
	EventChanged  = "budget_changed"
)

// Delta captures the change in totals between two recomputes.
type Delta struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Savings     float64 `json:"savings"`
	Unallocated float64 `json:"unallocated"`
}

func (d Delta) isZero() bool {
	return d.Income == 0 &&
		d.Expenses == 0 &&
		d.Savings == 0 &&
		d.Unallocated == 0
}

// Event is emitted after every change to a session's budget.
type Event struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Timestamp time.Time       `json:"timestamp"`
	Change    *budget.Change  `json:"change,omitempty"`
	Frequency model.Frequency `json:"frequency"`
	Totals    model.Totals    `json:"totals"`
	Delta     Delta           `json:"delta"`
	// Moved reports whether any total changed.
	Moved bool `json:"moved"`
}

func diffTotals(prev, curr model.Totals) Delta {
	return Delta{
		Income:      curr.Income - prev.Income,
		Expenses:    curr.Expenses - prev.Expenses,
		Savings:     curr.Savings - prev.Savings,
		Unallocated: curr.Unallocated - prev.Unallocated,
	}
}

// eventLog is a bounded ring of events plus live subscribers.
// Callers hold the owning session's evMu.
type eventLog struct {
	limit     int
	nextID    int64
	events    []Event
	nextSubID int
	subs      map[int]chan Event
}

func newEventLog(limit int) *eventLog {
	return &eventLog{limit: limit, subs: make(map[int]chan Event)}
}

func (l *eventLog) publish(ev Event) Event {
	l.nextID++
	ev.ID = l.nextID
	l.events = append(l.events, ev)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}

	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

func (l *eventLog) snapshot() []Event {
	events := make([]Event, len(l.events))
	copy(events, l.events)
	return events
}

func (l *eventLog) subscribe(ch chan Event) int {
	l.nextSubID++
	id := l.nextSubID
	l.subs[id] = ch
	return id
}

func (l *eventLog) unsubscribe(id int) {
	delete(l.subs, id)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
