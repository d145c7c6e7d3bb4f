// Package status provides a thread-safe status tracker for the smart-clock daemon.
// It is read by HTTP handlers and lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	SampleMs    int64
	DebounceMs  int64
	TelemetryMs int64
	TimeSource  string
	Telemetry   string // "mqtt", "https" or "none"
	Broker      string
	HTTPAddr    string
	Display     string
}

// Counts are the controller's running counters.
type Counts struct {
	SensorReads      int
	SensorFailures   int
	ButtonPresses    int
	ButtonBounces    int
	Saves            int
	SaveFailures     int
	TelemetrySent    uint64
	TelemetryFailed  uint64
	TelemetryDropped uint64
}

// State is what the controller publishes after every tick.
type State struct {
	Synced      bool
	WallTime    time.Time // zero when not synced
	HaveSample  bool
	Sample      logic.SensorSample
	Color       logic.ColorValue
	TargetColor logic.ColorValue
	Thresholds  logic.ThresholdConfig
	Edit        logic.EditState
	Notice      string
	LastError   string
	Counts      Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the controller state. Called from the control loop.
func (t *Tracker) Update(st State) {
	t.mu.Lock()
	t.snap.State = st
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
