package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{TickMs: 50, SampleMs: 5000, Broker: "ssl://broker:8883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 50 {
		t.Errorf("Config.TickMs: got %d, want 50", snap.Config.TickMs)
	}
	if snap.Synced {
		t.Error("expected Synced=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(State{
		Synced:     true,
		HaveSample: true,
		Sample:     logic.SensorSample{Temperature: 21.5},
		Thresholds: logic.ThresholdConfig{Min: 18, Max: 26},
		Counts:     Counts{SensorReads: 3, SensorFailures: 1},
	})

	snap := tr.Snapshot()
	if !snap.Synced || !snap.HaveSample {
		t.Errorf("got %+v", snap.State)
	}
	if snap.Sample.Temperature != 21.5 {
		t.Errorf("Temperature: got %v", snap.Sample.Temperature)
	}
	if snap.Counts.SensorFailures != 1 {
		t.Errorf("Counts.SensorFailures: got %d, want 1", snap.Counts.SensorFailures)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	snap := NewTracker(start, Config{}).Snapshot()
	if up := snap.Uptime(); up < 90*time.Second || up > 95*time.Second {
		t.Errorf("Uptime: got %v", up)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(State{Notice: "first"})
	snap := tr.Snapshot()
	tr.Update(State{Notice: "second"})
	if snap.Notice != "first" {
		t.Errorf("snapshot changed after Update: %q", snap.Notice)
	}
}

func fixedSnapshot() Snapshot {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	return Snapshot{
		State: State{
			Synced:      true,
			WallTime:    time.Date(2026, 3, 4, 10, 5, 0, 0, time.UTC),
			HaveSample:  true,
			Sample:      logic.SensorSample{Temperature: 18.3, TakenAt: time.Date(2026, 3, 4, 10, 4, 58, 0, time.UTC)},
			Color:       logic.ColorValue{R: 10, B: 245},
			TargetColor: logic.ColorValue{R: 10, B: 245},
			Thresholds:  logic.ThresholdConfig{Min: 18, Max: 26},
			Counts:      Counts{SensorReads: 60, TelemetrySent: 10},
		},
		StartTime:     start,
		Now:           start.Add(5 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 50, Telemetry: "mqtt", Broker: "ssl://broker:8883", HTTPAddr: ":8080", Display: "terminal"},
	}
}

func TestFormatJSON(t *testing.T) {
	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(fixedSnapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status

	if !s.Clock.Synced || s.Clock.Datetime != "2026-03-04T10:05:00Z" {
		t.Errorf("clock: got %+v", s.Clock)
	}
	if s.Temperature == nil || *s.Temperature != 18.3 {
		t.Errorf("temperature: got %v", s.Temperature)
	}
	if s.Color != "#0a00f5" {
		t.Errorf("color: got %q", s.Color)
	}
	if s.Mode != "NORMAL" || s.Candidate != nil {
		t.Errorf("mode/candidate: got %q / %v", s.Mode, s.Candidate)
	}
	if s.UptimeSeconds != 300 {
		t.Errorf("uptime: got %d, want 300", s.UptimeSeconds)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "ssl://broker:8883" {
		t.Errorf("mqtt: got %+v", s.MQTT)
	}
	if s.Counts.SensorReads != 60 || s.Counts.TelemetrySent != 10 {
		t.Errorf("counts: got %+v", s.Counts)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web JSON must not carry event/reason")
	}
}

func TestFormatJSONUnknownStateIsNull(t *testing.T) {
	snap := Snapshot{StartTime: time.Now(), Now: time.Now()}
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatal(err)
	}
	if got := string(raw["status"]["temperature"]); got != "null" {
		t.Errorf("temperature: got %s, want null", got)
	}
	var clock ClockJSON
	json.Unmarshal(raw["status"]["clock"], &clock)
	if clock.Synced || clock.Datetime != "" {
		t.Errorf("clock: got %+v", clock)
	}
}

func TestFormatJSONEditing(t *testing.T) {
	snap := fixedSnapshot()
	snap.Edit = logic.EditState{Mode: logic.ModeEditingMax, Candidate: 25.5}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)
	if parsed.Status.Mode != "EDITING_MAX" {
		t.Errorf("mode: got %q", parsed.Status.Mode)
	}
	if parsed.Status.Candidate == nil || *parsed.Status.Candidate != 25.5 {
		t.Errorf("candidate: got %v", parsed.Status.Candidate)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(fixedSnapshot(), "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	var raw map[string]map[string]json.RawMessage
	json.Unmarshal(FormatStatusEvent(fixedSnapshot(), "STARTUP", ""), &raw)
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(State{Counts: Counts{SensorReads: i*100 + j}})
				tr.SetMQTTConnected(j%2 == 0)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = FormatJSON(tr.Snapshot())
			}
		}()
	}
	wg.Wait()
}
