package logic

import (
	"testing"
	"time"
)

func TestClockUnsynced(t *testing.T) {
	c := NewClock(ClockState{}, time.Now())
	if _, ok := c.Now(time.Now()); ok {
		t.Error("unsynced clock must not report a time")
	}
	if c.Synced() {
		t.Error("expected Synced=false")
	}
}

func TestClockAdvancesFromSeed(t *testing.T) {
	seed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	local := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC) // arbitrary local instant

	c := NewClock(ClockState{EpochSeconds: uint64(seed.Unix()), Synced: true}, local)

	got, ok := c.Now(local.Add(90 * time.Second))
	if !ok {
		t.Fatal("expected a time")
	}
	want := seed.Add(90 * time.Second)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClockNeverGoesBackBeforeSeed(t *testing.T) {
	seed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	local := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(ClockState{EpochSeconds: uint64(seed.Unix()), Synced: true}, local)

	got, _ := c.Now(local.Add(-time.Minute))
	if !got.Equal(seed) {
		t.Errorf("got %v, want %v", got, seed)
	}
}

func TestThresholdConfigValid(t *testing.T) {
	tests := []struct {
		cfg  ThresholdConfig
		want bool
	}{
		{ThresholdConfig{Min: 18, Max: 26}, true},
		{ThresholdConfig{Min: 21, Max: 21}, true},
		{ThresholdConfig{Min: 26, Max: 18}, false},
		{ThresholdConfig{Min: -41, Max: 20}, false},
		{ThresholdConfig{Min: 20, Max: 85.5}, false},
	}
	for _, tt := range tests {
		if got := tt.cfg.Valid(); got != tt.want {
			t.Errorf("%+v.Valid(): got %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestTelemetryRecordTime(t *testing.T) {
	r := TelemetryRecord{EpochSeconds: 1767225600, Temperature: 21.5}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !r.Time().Equal(want) {
		t.Errorf("got %v, want %v", r.Time(), want)
	}
}
