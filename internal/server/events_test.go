package server

import (
	"math"
	"testing"

	"github.com/theirongolddev/cadence/internal/model"
)

func TestDiffTotals(t *testing.T) {
	prev := model.Totals{Income: 1000, Expenses: 400, Savings: 100, Unallocated: 500}
	curr := model.Totals{Income: 1200, Expenses: 450.5, Savings: 100, Unallocated: 649.5}

	delta := diffTotals(prev, curr)
	if delta.Income != 200 {
		t.Fatalf("Income delta = %.2f, want 200", delta.Income)
	}
	if math.Abs(delta.Expenses-50.5) > 1e-9 {
		t.Fatalf("Expenses delta = %.2f, want 50.5", delta.Expenses)
	}
	if delta.Savings != 0 {
		t.Fatalf("Savings delta = %.2f, want 0", delta.Savings)
	}
	if math.Abs(delta.Unallocated-149.5) > 1e-9 {
		t.Fatalf("Unallocated delta = %.2f, want 149.5", delta.Unallocated)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffTotals(curr, curr).isZero() {
		t.Fatal("identical totals should diff to zero")
	}
}

func TestEventLogRingBuffer(t *testing.T) {
	l := newEventLog(2)

	l.publish(Event{Type: EventChanged})
	l.publish(Event{Type: EventChanged})
	l.publish(Event{Type: EventChanged})

	events := l.snapshot()
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[0].ID != 2 || events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", events[0].ID, events[1].ID)
	}
}

func TestEventLogSlowSubscriberDoesNotBlock(t *testing.T) {
	l := newEventLog(10)
	ch := make(chan Event, 1)
	id := l.subscribe(ch)

	l.publish(Event{Type: EventChanged})
	l.publish(Event{Type: EventChanged})

	if got := (<-ch).ID; got != 1 {
		t.Fatalf("first delivered event = %d, want 1", got)
	}
	l.unsubscribe(id)
	if len(l.subs) != 0 {
		t.Fatalf("subscribers = %d after unsubscribe", len(l.subs))
	}
}
