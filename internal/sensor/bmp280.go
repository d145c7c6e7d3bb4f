package sensor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/sweeney/smart-clock/internal/i2cbus"
	"github.com/sweeney/smart-clock/internal/logic"
)

// BMP280 reads temperature from a Bosch BMP280 on the shared I2C bus.
type BMP280 struct {
	dev     *bmxx80.Dev
	timeout time.Duration
	now     func() time.Time
	busy    atomic.Bool
}

// NewBMP280 initializes the sensor at addr.
func NewBMP280(bus *i2cbus.Shared, addr uint16, timeout time.Duration) (*BMP280, error) {
	opts := bmxx80.DefaultOpts
	dev, err := bmxx80.NewI2C(bus, addr, &opts)
	if err != nil {
		return nil, fmt.Errorf("init bmp280 at 0x%02x: %w", addr, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BMP280{dev: dev, timeout: timeout, now: time.Now}, nil
}

type senseResult struct {
	env physic.Env
	err error
}

// Sample reads the temperature. A read still in flight from an earlier,
// abandoned call makes this one fail immediately.
func (s *BMP280) Sample(ctx context.Context) (logic.SensorSample, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return logic.SensorSample{}, fmt.Errorf("%w: previous read still in flight", ErrTransientRead)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan senseResult, 1)
	go func() {
		defer s.busy.Store(false)
		var r senseResult
		r.err = s.dev.Sense(&r.env)
		done <- r
	}()

	select {
	case <-ctx.Done():
		return logic.SensorSample{}, fmt.Errorf("%w: %v", ErrTransientRead, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return logic.SensorSample{}, fmt.Errorf("%w: %v", ErrTransientRead, r.err)
		}
		return logic.SensorSample{
			Temperature: Celsius(r.env.Temperature),
			TakenAt:     s.now(),
		}, nil
	}
}

// Close halts the sensor.
func (s *BMP280) Close() error {
	return s.dev.Halt()
}

// Celsius converts a periph temperature to degrees Celsius.
func Celsius(t physic.Temperature) logic.Temperature {
	return logic.Temperature(float64(t-physic.ZeroCelsius) / float64(physic.Kelvin))
}
