package pwm

import (
	"sync"

	"github.com/sweeney/smart-clock/internal/logic"
)

// FakeLED records every color written.
type FakeLED struct {
	mu     sync.Mutex
	colors []logic.ColorValue

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLED creates a FakeLED for testing.
func NewFakeLED() *FakeLED {
	return &FakeLED{}
}

// Set records the color.
func (f *FakeLED) Set(c logic.ColorValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.colors = append(f.colors, c)
	return nil
}

// Colors returns a copy of the written colors.
func (f *FakeLED) Colors() []logic.ColorValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.ColorValue(nil), f.colors...)
}

// Last returns the most recent color, or black.
func (f *FakeLED) Last() logic.ColorValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.colors) == 0 {
		return logic.ColorValue{}
	}
	return f.colors[len(f.colors)-1]
}

// Close marks the LED as closed.
func (f *FakeLED) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
