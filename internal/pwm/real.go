package pwm

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/sweeney/smart-clock/internal/logic"
)

// RealLED drives three periph PWM pins.
type RealLED struct {
	pins     [3]gpio.PinIO
	freq     physic.Frequency
	inverted bool
}

// NewRealLED resolves the pins and turns the LED off.
func NewRealLED(pins Pins, freq physic.Frequency, commonAnode bool) (*RealLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	if freq <= 0 {
		freq = DefaultFrequency
	}

	l := &RealLED{freq: freq, inverted: commonAnode}
	for i, name := range []string{pins.Red, pins.Green, pins.Blue} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("pwm pin %q not found", name)
		}
		l.pins[i] = p
	}

	if err := l.Set(logic.ColorValue{}); err != nil {
		return nil, err
	}
	return l, nil
}

// Set writes the three channel duties.
func (l *RealLED) Set(c logic.ColorValue) error {
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		if err := l.pins[i].PWM(Duty(v, l.inverted), l.freq); err != nil {
			return fmt.Errorf("pwm %s: %w", l.pins[i], err)
		}
	}
	return nil
}

// Close turns the LED off and halts the pins.
func (l *RealLED) Close() error {
	var errs []error
	if err := l.Set(logic.ColorValue{}); err != nil {
		errs = append(errs, err)
	}
	for _, p := range l.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", p, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
