package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

func TestAsyncDelivers(t *testing.T) {
	f := NewFakeReporter()
	a := NewAsync(f, time.Second, nil)

	rec := logic.TelemetryRecord{EpochSeconds: 1, Temperature: 20}
	if !a.Submit(rec) {
		t.Fatal("Submit on an idle worker should succeed")
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	if got := f.Records(); len(got) != 1 || got[0] != rec {
		t.Errorf("records: got %+v", got)
	}
	if !f.Closed() {
		t.Error("Close should close the underlying reporter")
	}
	if s := a.Stats(); s.Submitted != 1 || s.Reported != 1 {
		t.Errorf("stats: got %+v", s)
	}
}

func TestAsyncDropsWhenBusy(t *testing.T) {
	f := NewFakeReporter()
	f.Block = make(chan struct{})

	var mu sync.Mutex
	results := map[string]int{}
	a := NewAsync(f, time.Minute, nil)
	a.OnResult = func(r string) {
		mu.Lock()
		results[r]++
		mu.Unlock()
	}

	// The first record is picked up by the worker (blocked in Report), the
	// second fills the slot, everything after is dropped.
	a.Submit(logic.TelemetryRecord{EpochSeconds: 1})
	deadline := time.Now().Add(2 * time.Second)
	for len(a.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !a.Submit(logic.TelemetryRecord{EpochSeconds: 2}) {
		t.Fatal("second record should fill the slot")
	}

	start := time.Now()
	for i := 0; i < 5; i++ {
		if a.Submit(logic.TelemetryRecord{EpochSeconds: uint64(10 + i)}) {
			t.Errorf("record %d should have been dropped", i)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Submit must not block")
	}

	close(f.Block)
	a.Close()

	if got := len(f.Records()); got != 2 {
		t.Errorf("delivered: got %d, want 2", got)
	}
	s := a.Stats()
	if s.Dropped != 5 {
		t.Errorf("dropped: got %d, want 5", s.Dropped)
	}
	mu.Lock()
	defer mu.Unlock()
	if results["dropped"] != 5 || results["ok"] != 2 {
		t.Errorf("results: got %v", results)
	}
}

func TestAsyncFailuresAreCountedNotRetried(t *testing.T) {
	f := NewFakeReporter()
	f.ReportError = errors.New("collector down")
	a := NewAsync(f, time.Second, nil)

	a.Submit(logic.TelemetryRecord{EpochSeconds: 1})
	a.Close()

	s := a.Stats()
	if s.Failed != 1 || s.Reported != 0 {
		t.Errorf("stats: got %+v", s)
	}
}

func TestAsyncTimeoutAbandonsReport(t *testing.T) {
	f := NewFakeReporter()
	f.Block = make(chan struct{})
	defer close(f.Block)

	a := NewAsync(f, 20*time.Millisecond, nil)
	a.Submit(logic.TelemetryRecord{EpochSeconds: 1})
	a.Close()

	if s := a.Stats(); s.Failed != 1 {
		t.Errorf("stats: got %+v", s)
	}
}

func TestAsyncSubmitAfterClose(t *testing.T) {
	a := NewAsync(NewFakeReporter(), time.Second, nil)
	a.Close()
	if a.Submit(logic.TelemetryRecord{}) {
		t.Error("Submit after Close should report false")
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
