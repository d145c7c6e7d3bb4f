package gpio

import (
	"sync"

	"github.com/sweeney/smart-clock/internal/logic"
)

// FakeButtons is a test double that returns scripted edge batches.
type FakeButtons struct {
	mu sync.Mutex

	// Batches contains scripted Poll results. Each call to Poll consumes the
	// next batch; once exhausted Poll returns nothing.
	Batches [][]logic.Edge

	// Polls counts Poll invocations.
	Polls int

	// Closed tracks if Close was called.
	Closed bool

	pending []logic.Edge
}

// NewFakeButtons creates FakeButtons with the given batches.
func NewFakeButtons(batches ...[]logic.Edge) *FakeButtons {
	return &FakeButtons{Batches: batches}
}

// Push queues edges for the next Poll, ahead of any scripted batch.
func (f *FakeButtons) Push(edges ...logic.Edge) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, edges...)
}

// Poll returns pushed edges followed by the next scripted batch.
func (f *FakeButtons) Poll() []logic.Edge {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Polls++

	out := f.pending
	f.pending = nil
	if len(f.Batches) > 0 {
		out = append(out, f.Batches[0]...)
		f.Batches = f.Batches[1:]
	}
	return out
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
