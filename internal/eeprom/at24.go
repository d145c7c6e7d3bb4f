package eeprom

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/sweeney/smart-clock/internal/i2cbus"
)

const (
	writeCycle   = 5 * time.Millisecond
	ackPollLimit = 20
)

// AT24 drives a 24Cxx-family EEPROM with 2-byte word addresses on a shared bus.
type AT24 struct {
	bus      *i2cbus.Shared
	addr     uint16
	size     int64
	pageSize int
	sleep    func(time.Duration)
}

// NewAT24C256 addresses a 24C256 at addr on bus.
func NewAT24C256(bus *i2cbus.Shared, addr uint16) *AT24 {
	return NewAT24(bus, addr, AT24C256Size, AT24C256PageSize)
}

// NewAT24 addresses a 24Cxx of the given geometry.
func NewAT24(bus *i2cbus.Shared, addr uint16, size int64, pageSize int) *AT24 {
	return &AT24{
		bus:      bus,
		addr:     addr,
		size:     size,
		pageSize: pageSize,
		sleep:    time.Sleep,
	}
}

// ReadAt performs a random read: set the word address, then read sequentially.
func (e *AT24) ReadAt(p []byte, off int64) (int, error) {
	if err := checkRange(e.size, len(p), off); err != nil {
		return 0, err
	}
	if err := e.bus.Tx(e.addr, wordAddr(off), p); err != nil {
		return 0, fmt.Errorf("read at 0x%04x: %w", off, err)
	}
	return len(p), nil
}

// WriteAt splits p into page writes. Writes never cross a page boundary
// because the device would wrap within the page.
func (e *AT24) WriteAt(p []byte, off int64) (int, error) {
	if err := checkRange(e.size, len(p), off); err != nil {
		return 0, err
	}
	written := 0
	for written < len(p) {
		at := off + int64(written)
		room := e.pageSize - int(at%int64(e.pageSize))
		n := len(p) - written
		if n > room {
			n = room
		}

		buf := append(wordAddr(at), p[written:written+n]...)
		err := e.bus.Exclusive(func(bus i2c.Bus) error {
			if err := bus.Tx(e.addr, buf, nil); err != nil {
				return fmt.Errorf("write page at 0x%04x: %w", at, err)
			}
			return e.waitReady(bus)
		})
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// waitReady polls for an acknowledge after the internal write cycle.
func (e *AT24) waitReady(bus i2c.Bus) error {
	e.sleep(writeCycle)
	var err error
	for i := 0; i < ackPollLimit; i++ {
		if err = bus.Tx(e.addr, wordAddr(0), nil); err == nil {
			return nil
		}
		e.sleep(time.Millisecond)
	}
	return fmt.Errorf("device not ready after write: %w", err)
}

// Close is a no-op; the bus belongs to its i2cbus.Shared owner.
func (e *AT24) Close() error {
	return nil
}

func wordAddr(off int64) []byte {
	return []byte{byte(off >> 8), byte(off)}
}
