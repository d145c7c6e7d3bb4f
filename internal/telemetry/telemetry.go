// Package telemetry reports {datetime, temperature} records to a collector
// with abstraction for testing.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

// ErrReport wraps every failed report. Failures are logged and discarded;
// a record is never retried.
var ErrReport = errors.New("telemetry: report failed")

// Reporter delivers telemetry records.
type Reporter interface {
	// Report sends one record. Implementations honour ctx for cancellation.
	Report(ctx context.Context, rec logic.TelemetryRecord) error

	// Close releases the transport.
	Close() error
}

// SystemPublisher publishes lifecycle events (STARTUP, SHUTDOWN).
type SystemPublisher interface {
	PublishSystem(event SystemEvent) error
}

// ConnectionStatus reports whether the transport connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Topic returns the telemetry topic for a device.
func Topic(device string) string {
	return "smartclock/" + device + "/telemetry"
}

// TopicSystem returns the lifecycle topic for a device.
func TopicSystem(device string) string {
	return "smartclock/" + device + "/system"
}

// Payload is the wire form of a telemetry record.
type Payload struct {
	Datetime    string      `json:"datetime"`
	Temperature json.Number `json:"temperature"`
}

// FormatPayload creates the JSON payload for a record. The temperature is
// written with the shortest decimal that round-trips its float32 value.
func FormatPayload(rec logic.TelemetryRecord) ([]byte, error) {
	return json.Marshal(Payload{
		Datetime:    rec.Time().Format(time.RFC3339),
		Temperature: json.Number(strconv.FormatFloat(float64(rec.Temperature), 'f', -1, 32)),
	})
}

// SystemEvent represents a system lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// SystemPayload is used for simple events that don't carry a status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
