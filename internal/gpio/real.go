//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/smart-clock/internal/logic"
)

// RealButtons reports button edges from actual hardware using the Linux GPIO
// character device.
type RealButtons struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	queue *edgeQueue
	now   func() time.Time
}

// NewRealButtons requests the three button lines on chipName.
func NewRealButtons(chipName string, pins Pins, kind EdgeKind) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	bias, edge := lineOptions(kind)
	b := &RealButtons{
		chip:  chip,
		queue: newEdgeQueue(DefaultQueueSize),
		now:   time.Now,
	}

	for _, p := range []struct {
		button logic.Button
		offset int
	}{
		{logic.ButtonEnter, pins.Enter},
		{logic.ButtonIncrease, pins.Increase},
		{logic.ButtonDecrease, pins.Decrease},
	} {
		button := p.button
		handler := func(gpiocdev.LineEvent) {
			b.queue.push(logic.Edge{Button: button, At: b.now()})
		}
		line, err := chip.RequestLine(p.offset, gpiocdev.AsInput, bias, edge, gpiocdev.WithEventHandler(handler))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", button, p.offset, err)
		}
		b.lines = append(b.lines, line)
	}

	return b, nil
}

func lineOptions(kind EdgeKind) (gpiocdev.LineReqOption, gpiocdev.LineReqOption) {
	if kind == EdgeRising {
		return gpiocdev.WithPullDown, gpiocdev.WithRisingEdge
	}
	return gpiocdev.WithPullUp, gpiocdev.WithFallingEdge
}

// Poll drains buffered edges.
func (b *RealButtons) Poll() []logic.Edge {
	return b.queue.drain()
}

// Dropped reports edges lost to a full buffer.
func (b *RealButtons) Dropped() uint64 {
	return b.queue.dropped.Load()
}

// Close releases GPIO resources.
// Lines are reconfigured as plain inputs with pull-down (the Pi boot
// default) before closing.
func (b *RealButtons) Close() error {
	var errs []error
	for _, l := range b.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	b.lines = nil
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
