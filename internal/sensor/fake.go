package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

// Reading is one scripted result of a FakeReader.
type Reading struct {
	Temperature logic.Temperature
	Err         error // if set, the read fails with ErrTransientRead wrapping it
}

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	// Readings contains scripted results. Each call to Sample consumes the
	// next one; once exhausted the last one repeats.
	Readings []Reading

	// Now supplies TakenAt; time.Now if nil.
	Now func() time.Time

	// Calls counts Sample invocations.
	Calls int

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given readings.
func NewFakeReader(readings ...Reading) *FakeReader {
	return &FakeReader{Readings: readings}
}

// Sample returns the next scripted reading.
func (f *FakeReader) Sample(ctx context.Context) (logic.SensorSample, error) {
	f.Calls++
	if len(f.Readings) == 0 {
		return logic.SensorSample{}, fmt.Errorf("%w: no readings configured", ErrTransientRead)
	}

	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	if r.Err != nil {
		return logic.SensorSample{}, fmt.Errorf("%w: %v", ErrTransientRead, r.Err)
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return logic.SensorSample{Temperature: r.Temperature, TakenAt: now()}, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// ErrSimulated is a convenience error for scripted failures.
var ErrSimulated = errors.New("simulated i2c failure")
