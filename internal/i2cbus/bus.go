// Package i2cbus owns the I2C bus shared by the temperature sensor and the
// EEPROM. Every transaction goes through the owner, which serializes them.
package i2cbus

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Shared serializes access to a single I2C bus. It implements i2c.Bus so
// device drivers can use it directly.
type Shared struct {
	mu  sync.Mutex
	bus i2c.BusCloser
}

// Open initializes the host drivers and opens the named bus ("" for the
// first available one).
func Open(name string) (*Shared, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return New(bus), nil
}

// New wraps an already opened bus.
func New(bus i2c.BusCloser) *Shared {
	return &Shared{bus: bus}
}

// Tx performs one locked transaction.
func (s *Shared) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Tx(addr, w, r)
}

// SetSpeed changes the bus clock.
func (s *Shared) SetSpeed(f physic.Frequency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.SetSpeed(f)
}

// Exclusive runs fn with the bus held, so a multi-transaction sequence
// (e.g. a page write and its acknowledge polling) is not interleaved with
// other devices. fn must use the bus it is given, not s.
func (s *Shared) Exclusive(fn func(bus i2c.Bus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.bus)
}

func (s *Shared) String() string {
	return s.bus.String()
}

// Close closes the underlying bus.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Close()
}
