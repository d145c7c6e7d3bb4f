// Package logic contains the pure controller logic of the smart clock:
// threshold editing, color mapping, color ramps, debouncing and the clock.
// This package has NO external dependencies (no GPIO, I2C, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"math"
	"time"
)

// Temperature is a reading or threshold in degrees Celsius.
// It is 32 bits wide so that persisted thresholds round-trip exactly.
type Temperature float32

// Sensor valid range and the editing step.
const (
	SensorMin Temperature = -40.0
	SensorMax Temperature = 85.0
	Step      Temperature = 0.5
)

// Clamp limits t to [lo, hi].
func (t Temperature) Clamp(lo, hi Temperature) Temperature {
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}

// InRange reports whether t is a finite value inside the sensor range.
func (t Temperature) InRange() bool {
	f := float64(t)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return t >= SensorMin && t <= SensorMax
}

func (t Temperature) String() string {
	return fmt.Sprintf("%.1fC", float32(t))
}

// ThresholdConfig is the comfort range used for color feedback.
type ThresholdConfig struct {
	Min Temperature
	Max Temperature
}

// DefaultThresholds is used when nothing valid is persisted.
var DefaultThresholds = ThresholdConfig{Min: 18.0, Max: 26.0}

// Valid reports whether both bounds are in the sensor range and Min <= Max.
func (c ThresholdConfig) Valid() bool {
	return c.Min.InRange() && c.Max.InRange() && c.Min <= c.Max
}

// SensorSample is a single temperature reading.
type SensorSample struct {
	Temperature Temperature
	TakenAt     time.Time
}

// ColorValue is an 8-bit RGB color.
type ColorValue struct {
	R uint8
	G uint8
	B uint8
}

// Hex returns the color as #rrggbb.
func (c ColorValue) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Endpoint colors of the temperature scale.
var (
	Cold = ColorValue{B: 255}
	Hot  = ColorValue{R: 255}
)

// ConfigMode is the state of the threshold editor.
type ConfigMode int

const (
	ModeNormal ConfigMode = iota
	ModeEditingMin
	ModeEditingMax
)

func (m ConfigMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeEditingMin:
		return "EDITING_MIN"
	case ModeEditingMax:
		return "EDITING_MAX"
	default:
		return "UNKNOWN"
	}
}

// Button identifies one of the three operator inputs.
type Button int

const (
	ButtonEnter Button = iota
	ButtonIncrease
	ButtonDecrease
)

func (b Button) String() string {
	switch b {
	case ButtonEnter:
		return "ENTER"
	case ButtonIncrease:
		return "INCREASE"
	case ButtonDecrease:
		return "DECREASE"
	default:
		return "UNKNOWN"
	}
}

// Edge is a raw (not yet debounced) button edge.
type Edge struct {
	Button Button
	At     time.Time
}

// TelemetryRecord is one {time, temperature} report.
type TelemetryRecord struct {
	EpochSeconds uint64
	Temperature  Temperature
}

// Time returns the record timestamp in UTC.
func (r TelemetryRecord) Time() time.Time {
	return time.Unix(int64(r.EpochSeconds), 0).UTC()
}
