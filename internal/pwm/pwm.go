// Package pwm drives the RGB status LED.
package pwm

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/smart-clock/internal/logic"
)

// LED renders a color.
type LED interface {
	Set(c logic.ColorValue) error
	Close() error
}

// Pins names the PWM-capable pins driving each channel.
type Pins struct {
	Red   string
	Green string
	Blue  string
}

// DefaultPins are the hardware PWM pins on a Raspberry Pi header.
var DefaultPins = Pins{Red: "GPIO12", Green: "GPIO13", Blue: "GPIO18"}

// DefaultFrequency is well above visible flicker.
const DefaultFrequency = 1 * physic.KiloHertz

// Duty converts an 8-bit channel value to a PWM duty cycle. A common-anode
// LED lights when the pin is low, so its duty is inverted.
func Duty(v uint8, inverted bool) gpio.Duty {
	d := gpio.Duty(uint64(v) * uint64(gpio.DutyMax) / 255)
	if inverted {
		return gpio.DutyMax - d
	}
	return d
}
