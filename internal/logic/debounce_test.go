package logic

import (
	"testing"
	"time"
)

func TestDebouncerBounceCountsOnce(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(50 * time.Millisecond)

	presses := d.Filter([]Edge{
		{Button: ButtonEnter, At: now},
		{Button: ButtonEnter, At: now.Add(10 * time.Millisecond)},
	})

	if len(presses) != 1 {
		t.Fatalf("expected 1 press, got %d", len(presses))
	}
	if presses[0] != ButtonEnter {
		t.Errorf("expected ENTER, got %v", presses[0])
	}
	accepted, bounced := d.Counts()
	if accepted != 1 || bounced != 1 {
		t.Errorf("counts: got (%d, %d), want (1, 1)", accepted, bounced)
	}
}

func TestDebouncerAcceptsAfterQuietInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(50 * time.Millisecond)

	if !d.Accept(Edge{Button: ButtonIncrease, At: now}) {
		t.Fatal("first edge should be accepted")
	}
	if d.Accept(Edge{Button: ButtonIncrease, At: now.Add(49 * time.Millisecond)}) {
		t.Error("edge inside the quiet interval should be rejected")
	}
	if !d.Accept(Edge{Button: ButtonIncrease, At: now.Add(50 * time.Millisecond)}) {
		t.Error("edge at the quiet interval should be accepted")
	}
}

func TestDebouncerMeasuresFromLastAcceptedEdge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(50 * time.Millisecond)

	d.Accept(Edge{Button: ButtonEnter, At: now})
	// Rejected bounces must not extend the window.
	d.Accept(Edge{Button: ButtonEnter, At: now.Add(30 * time.Millisecond)})
	d.Accept(Edge{Button: ButtonEnter, At: now.Add(45 * time.Millisecond)})

	if !d.Accept(Edge{Button: ButtonEnter, At: now.Add(55 * time.Millisecond)}) {
		t.Error("edge 55ms after the accepted one should be accepted")
	}
}

func TestDebouncerButtonsAreIndependent(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(50 * time.Millisecond)

	presses := d.Filter([]Edge{
		{Button: ButtonIncrease, At: now},
		{Button: ButtonDecrease, At: now.Add(5 * time.Millisecond)},
		{Button: ButtonEnter, At: now.Add(10 * time.Millisecond)},
	})

	if len(presses) != 3 {
		t.Fatalf("expected 3 presses, got %d", len(presses))
	}
	want := []Button{ButtonIncrease, ButtonDecrease, ButtonEnter}
	for i := range want {
		if presses[i] != want[i] {
			t.Errorf("press %d: got %v, want %v", i, presses[i], want[i])
		}
	}
}

func TestDebouncerEmptyInput(t *testing.T) {
	d := NewDebouncer(DefaultQuietInterval)
	if presses := d.Filter(nil); len(presses) != 0 {
		t.Errorf("expected no presses, got %d", len(presses))
	}
}
