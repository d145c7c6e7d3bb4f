package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Clock         ClockJSON      `json:"clock"`
	Temperature   *float64       `json:"temperature"`
	SampledAt     string         `json:"sampled_at,omitempty"`
	Color         string         `json:"color"`
	TargetColor   string         `json:"target_color"`
	Thresholds    ThresholdsJSON `json:"thresholds"`
	Mode          string         `json:"mode"`
	Candidate     *float64       `json:"candidate,omitempty"`
	Notice        string         `json:"notice,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Config        ConfigJSON     `json:"config"`
}

// ClockJSON reports the synchronised clock.
type ClockJSON struct {
	Synced   bool   `json:"synced"`
	Datetime string `json:"datetime,omitempty"`
}

// ThresholdsJSON is the active comfort range.
type ThresholdsJSON struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of the counters.
type CountsJSON struct {
	SensorReads      int    `json:"sensor_reads"`
	SensorFailures   int    `json:"sensor_failures"`
	ButtonPresses    int    `json:"button_presses"`
	ButtonBounces    int    `json:"button_bounces"`
	Saves            int    `json:"saves"`
	SaveFailures     int    `json:"save_failures"`
	TelemetrySent    uint64 `json:"telemetry_sent"`
	TelemetryFailed  uint64 `json:"telemetry_failed"`
	TelemetryDropped uint64 `json:"telemetry_dropped"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	SampleMs    int64  `json:"sample_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	TelemetryMs int64  `json:"telemetry_ms"`
	TimeSource  string `json:"time_source"`
	Telemetry   string `json:"telemetry"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr"`
	Display     string `json:"display"`
}

// round1 keeps one decimal so float32 values print cleanly.
func round1(v float32) float64 {
	return math.Round(float64(v)*10) / 10
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Clock:       ClockJSON{Synced: snap.Synced},
		Color:       snap.Color.Hex(),
		TargetColor: snap.TargetColor.Hex(),
		Thresholds: ThresholdsJSON{
			Min: round1(float32(snap.Thresholds.Min)),
			Max: round1(float32(snap.Thresholds.Max)),
		},
		Mode:          snap.Edit.Mode.String(),
		Notice:        snap.Notice,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			SensorReads:      snap.Counts.SensorReads,
			SensorFailures:   snap.Counts.SensorFailures,
			ButtonPresses:    snap.Counts.ButtonPresses,
			ButtonBounces:    snap.Counts.ButtonBounces,
			Saves:            snap.Counts.Saves,
			SaveFailures:     snap.Counts.SaveFailures,
			TelemetrySent:    snap.Counts.TelemetrySent,
			TelemetryFailed:  snap.Counts.TelemetryFailed,
			TelemetryDropped: snap.Counts.TelemetryDropped,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			SampleMs:    snap.Config.SampleMs,
			DebounceMs:  snap.Config.DebounceMs,
			TelemetryMs: snap.Config.TelemetryMs,
			TimeSource:  snap.Config.TimeSource,
			Telemetry:   snap.Config.Telemetry,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Display:     snap.Config.Display,
		},
	}

	if snap.Synced {
		inner.Clock.Datetime = snap.WallTime.UTC().Format(time.RFC3339)
	}
	if snap.HaveSample {
		t := round1(float32(snap.Sample.Temperature))
		inner.Temperature = &t
		inner.SampledAt = snap.Sample.TakenAt.UTC().Format(time.RFC3339)
	}
	if snap.Edit.Mode != logic.ModeNormal {
		c := round1(float32(snap.Edit.Candidate))
		inner.Candidate = &c
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
