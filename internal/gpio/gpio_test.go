package gpio

import (
	"testing"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

func TestEdgeQueueDrainOrder(t *testing.T) {
	q := newEdgeQueue(4)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	q.push(logic.Edge{Button: logic.ButtonEnter, At: now})
	q.push(logic.Edge{Button: logic.ButtonIncrease, At: now.Add(time.Millisecond)})

	got := q.drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(got))
	}
	if got[0].Button != logic.ButtonEnter || got[1].Button != logic.ButtonIncrease {
		t.Errorf("order: got %v, %v", got[0].Button, got[1].Button)
	}
	if again := q.drain(); len(again) != 0 {
		t.Errorf("second drain should be empty, got %d", len(again))
	}
}

func TestEdgeQueueDropsWhenFull(t *testing.T) {
	q := newEdgeQueue(2)
	for i := 0; i < 5; i++ {
		q.push(logic.Edge{Button: logic.ButtonDecrease})
	}
	if got := len(q.drain()); got != 2 {
		t.Errorf("kept: got %d, want 2", got)
	}
	if got := q.dropped.Load(); got != 3 {
		t.Errorf("dropped: got %d, want 3", got)
	}
}

func TestEdgeQueueDefaultSize(t *testing.T) {
	q := newEdgeQueue(0)
	if cap(q.ch) != DefaultQueueSize {
		t.Errorf("cap: got %d, want %d", cap(q.ch), DefaultQueueSize)
	}
}

func TestFakeButtonsBatches(t *testing.T) {
	now := time.Now()
	f := NewFakeButtons(
		[]logic.Edge{{Button: logic.ButtonEnter, At: now}},
		nil,
		[]logic.Edge{{Button: logic.ButtonIncrease, At: now}, {Button: logic.ButtonIncrease, At: now}},
	)

	if got := f.Poll(); len(got) != 1 {
		t.Errorf("poll 0: got %d edges", len(got))
	}
	if got := f.Poll(); len(got) != 0 {
		t.Errorf("poll 1: got %d edges", len(got))
	}
	if got := f.Poll(); len(got) != 2 {
		t.Errorf("poll 2: got %d edges", len(got))
	}
	if got := f.Poll(); len(got) != 0 {
		t.Errorf("exhausted: got %d edges", len(got))
	}
	if f.Polls != 4 {
		t.Errorf("Polls: got %d", f.Polls)
	}
}

func TestFakeButtonsPushComesFirst(t *testing.T) {
	f := NewFakeButtons([]logic.Edge{{Button: logic.ButtonEnter}})
	f.Push(logic.Edge{Button: logic.ButtonDecrease})

	got := f.Poll()
	if len(got) != 2 || got[0].Button != logic.ButtonDecrease || got[1].Button != logic.ButtonEnter {
		t.Errorf("got %+v", got)
	}
}

func TestFakeButtonsClose(t *testing.T) {
	f := NewFakeButtons()
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestDefaultPinsDistinct(t *testing.T) {
	p := DefaultPins
	if p.Enter == p.Increase || p.Enter == p.Decrease || p.Increase == p.Decrease {
		t.Errorf("pins must be distinct: %+v", p)
	}
}
