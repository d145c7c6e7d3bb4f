package logic

import "time"

// ClockState is the result of the boot-time synchronisation.
type ClockState struct {
	EpochSeconds uint64
	Synced       bool
}

// Clock is a local clock seeded once from a ClockState. It drifts with the
// host's monotonic clock and makes no attempt at precision.
type Clock struct {
	state    ClockState
	seededAt time.Time
}

// NewClock seeds a clock with state at the local instant seededAt.
func NewClock(state ClockState, seededAt time.Time) Clock {
	return Clock{state: state, seededAt: seededAt}
}

// State returns the seed state.
func (c Clock) State() ClockState { return c.state }

// Synced reports whether the clock was seeded from the network.
func (c Clock) Synced() bool { return c.state.Synced }

// Now returns the wall-clock time at local instant now. The second result
// is false when the clock was never synced; no time is fabricated then.
func (c Clock) Now(now time.Time) (time.Time, bool) {
	if !c.state.Synced {
		return time.Time{}, false
	}
	elapsed := now.Sub(c.seededAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return time.Unix(int64(c.state.EpochSeconds), 0).UTC().Add(elapsed), true
}
