// Package gpio provides button input with hardware abstraction.
// The real implementation uses Linux GPIO character device edge events.
// The fake implementation allows testing without hardware.
package gpio

import (
	"sync/atomic"

	"github.com/sweeney/smart-clock/internal/logic"
)

// Buttons delivers raw button edges. Debouncing is done by the caller.
type Buttons interface {
	// Poll drains the edges observed since the last call. It never blocks.
	Poll() []logic.Edge

	// Close releases GPIO resources.
	Close() error
}

// Pins maps buttons to line offsets (BCM numbering).
type Pins struct {
	Enter    int
	Increase int
	Decrease int
}

// DefaultPins wires the three buttons.
var DefaultPins = Pins{Enter: 17, Increase: 27, Decrease: 22}

// EdgeKind selects which transition counts as a press.
type EdgeKind string

const (
	// EdgeFalling: buttons pull the line to ground, internal pull-up.
	EdgeFalling EdgeKind = "falling"
	// EdgeRising: buttons drive the line high, internal pull-down.
	EdgeRising EdgeKind = "rising"
)

// DefaultQueueSize bounds edges held between polls.
const DefaultQueueSize = 32

// edgeQueue is a bounded, non-blocking edge buffer. The producer is the GPIO
// event handler; the consumer is Poll on the control loop.
type edgeQueue struct {
	ch      chan logic.Edge
	dropped atomic.Uint64
}

func newEdgeQueue(size int) *edgeQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &edgeQueue{ch: make(chan logic.Edge, size)}
}

// push adds an edge, dropping it when the buffer is full.
func (q *edgeQueue) push(e logic.Edge) {
	select {
	case q.ch <- e:
	default:
		q.dropped.Add(1)
	}
}

// drain returns every buffered edge in arrival order.
func (q *edgeQueue) drain() []logic.Edge {
	var out []logic.Edge
	for {
		select {
		case e := <-q.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}
