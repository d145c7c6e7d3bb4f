//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/smart-clock/internal/logic"
)

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chipName string, pins Pins, kind EdgeKind) (*RealButtons, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Poll returns nothing on non-Linux platforms.
func (b *RealButtons) Poll() []logic.Edge { return nil }

// Dropped is always zero on non-Linux platforms.
func (b *RealButtons) Dropped() uint64 { return 0 }

// Close is a no-op on non-Linux platforms.
func (b *RealButtons) Close() error { return nil }
