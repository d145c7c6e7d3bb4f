package logic

import "math"

// MapColor linearly interpolates from Cold at cfg.Min to Hot at cfg.Max.
// Samples outside the range clamp to the nearest end. A degenerate range
// (Min == Max) always yields Hot.
func MapColor(sample Temperature, cfg ThresholdConfig) ColorValue {
	if cfg.Min == cfg.Max {
		return Hot
	}
	f := (float64(sample) - float64(cfg.Min)) / (float64(cfg.Max) - float64(cfg.Min))
	if math.IsNaN(f) || f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return ColorValue{
		R: uint8(math.Round(f * 255)),
		G: 0,
		B: uint8(math.Round((1 - f) * 255)),
	}
}

// Ramp steps a color toward a target over a fixed number of steps.
// It is consumed one step per scheduler tick and can be retargeted at any
// point, in which case it restarts from the color it last produced.
type Ramp struct {
	from  ColorValue
	to    ColorValue
	cur   ColorValue
	steps int
	i     int
}

// NewRamp creates a ramp from -> to in steps increments. steps < 1 is
// treated as 1 (jump on the first Next).
func NewRamp(from, to ColorValue, steps int) *Ramp {
	if steps < 1 {
		steps = 1
	}
	r := &Ramp{from: from, to: to, cur: from, steps: steps}
	if from == to {
		r.i = steps
	}
	return r
}

// Next advances one step and returns the new color. The second result is
// false once the ramp had already reached its target.
func (r *Ramp) Next() (ColorValue, bool) {
	if r.i >= r.steps {
		return r.cur, false
	}
	r.i++
	r.cur = ColorValue{
		R: lerp(r.from.R, r.to.R, r.i, r.steps),
		G: lerp(r.from.G, r.to.G, r.i, r.steps),
		B: lerp(r.from.B, r.to.B, r.i, r.steps),
	}
	return r.cur, true
}

// Current returns the last produced color.
func (r *Ramp) Current() ColorValue { return r.cur }

// Target returns the color the ramp is heading to.
func (r *Ramp) Target() ColorValue { return r.to }

// Done reports whether the target has been reached.
func (r *Ramp) Done() bool { return r.i >= r.steps }

// Retarget restarts the ramp from the current color toward to.
// Retargeting to the current target is a no-op.
func (r *Ramp) Retarget(to ColorValue) {
	if to == r.to {
		return
	}
	r.from = r.cur
	r.to = to
	r.i = 0
	if r.from == r.to {
		r.i = r.steps
	}
}

func lerp(a, b uint8, i, n int) uint8 {
	v := float64(a) + (float64(b)-float64(a))*float64(i)/float64(n)
	return uint8(math.Round(v))
}
