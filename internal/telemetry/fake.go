package telemetry

import (
	"context"
	"sync"

	"github.com/sweeney/smart-clock/internal/logic"
)

// FakeReporter records reports for test assertions. It is safe for use from
// the Async worker goroutine.
type FakeReporter struct {
	mu sync.Mutex

	records        []logic.TelemetryRecord
	payloads       [][]byte
	systemEvents   []SystemEvent
	systemPayloads [][]byte

	// ReportError, if set, will be returned by Report.
	ReportError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Block, if set, makes Report wait until it is closed or ctx ends.
	Block chan struct{}

	// Connected controls the return value of IsConnected.
	Connected bool

	closed bool
}

// NewFakeReporter creates a FakeReporter for testing.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{}
}

// Report records the telemetry record.
func (f *FakeReporter) Report(ctx context.Context, rec logic.TelemetryRecord) error {
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReportError != nil {
		return f.ReportError
	}
	payload, err := FormatPayload(rec)
	if err != nil {
		return err
	}
	f.records = append(f.records, rec)
	f.payloads = append(f.payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakeReporter) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.systemEvents = append(f.systemEvents, event)
	f.systemPayloads = append(f.systemPayloads, payload)
	return nil
}

// Records returns a copy of the reported records.
func (f *FakeReporter) Records() []logic.TelemetryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.TelemetryRecord(nil), f.records...)
}

// Payloads returns a copy of the reported payloads.
func (f *FakeReporter) Payloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

// SystemEvents returns a copy of the published system events.
func (f *FakeReporter) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// IsConnected reports whether the fake reporter is "connected".
func (f *FakeReporter) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Closed reports whether Close was called.
func (f *FakeReporter) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close marks the reporter as closed.
func (f *FakeReporter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
