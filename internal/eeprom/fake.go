package eeprom

// Fake is an in-memory EEPROM image for tests.
type Fake struct {
	// Data is the raw memory, initially erased (0xFF).
	Data []byte

	// ReadError, if set, will be returned by ReadAt.
	ReadError error

	// WriteError, if set, will be returned by WriteAt.
	WriteError error

	// CorruptWrites flips the lowest bit of the first written byte,
	// simulating a write that did not stick.
	CorruptWrites bool

	// Writes counts WriteAt calls.
	Writes int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates an erased Fake of the given size.
func NewFake(size int) *Fake {
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &Fake{Data: data}
}

// ReadAt copies from Data.
func (f *Fake) ReadAt(p []byte, off int64) (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if err := checkRange(int64(len(f.Data)), len(p), off); err != nil {
		return 0, err
	}
	return copy(p, f.Data[off:]), nil
}

// WriteAt copies into Data.
func (f *Fake) WriteAt(p []byte, off int64) (int, error) {
	f.Writes++
	if f.WriteError != nil {
		return 0, f.WriteError
	}
	if err := checkRange(int64(len(f.Data)), len(p), off); err != nil {
		return 0, err
	}
	n := copy(f.Data[off:], p)
	if f.CorruptWrites && n > 0 {
		f.Data[off] ^= 0x01
	}
	return n, nil
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
