// Package eeprom provides byte-addressable non-volatile storage with hardware abstraction.
// The real implementation talks to a 24C256 over I2C.
// The file and fake implementations allow running and testing without hardware.
package eeprom

import "errors"

// Medium is a fixed-size, byte-addressable non-volatile memory.
type Medium interface {
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(p []byte, off int64) (int, error)

	// WriteAt writes p starting at off. It returns once the data is durable.
	WriteAt(p []byte, off int64) (int, error)

	// Close releases the underlying device.
	Close() error
}

// ErrOutOfRange is returned for accesses past the end of the medium.
var ErrOutOfRange = errors.New("eeprom: access out of range")

// AT24C256 geometry.
const (
	AT24C256Size     = 32 * 1024
	AT24C256PageSize = 64
	DefaultAddress   = 0x50
)

func checkRange(size int64, n int, off int64) error {
	if off < 0 || off+int64(n) > size {
		return ErrOutOfRange
	}
	return nil
}
