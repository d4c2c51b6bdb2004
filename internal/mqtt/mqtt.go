// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/launch-controller/internal/logic"
)

// Topic is the MQTT topic for launch state transitions.
const Topic = "launch/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "launch/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(t Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Transition is a controller state change stamped with wall-clock time.
type Transition struct {
	Timestamp time.Time
	Event     logic.Event
	Counts    logic.Counts
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Launch LaunchPayload `json:"launch"`
}

// LaunchPayload contains the transition details.
type LaunchPayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Reason    string        `json:"reason"`
	ClockMs   uint32        `json:"clock_ms"`
	Counts    CountsPayload `json:"counts"`
}

// CountsPayload mirrors logic.Counts.
type CountsPayload struct {
	Launches        int `json:"launches"`
	Aborts          int `json:"aborts"`
	Faults          int `json:"faults"`
	InterlockBreaks int `json:"interlock_breaks"`
}

// NewCountsPayload converts controller counts for JSON.
func NewCountsPayload(c logic.Counts) CountsPayload {
	return CountsPayload{
		Launches:        c.Launches,
		Aborts:          c.Aborts,
		Faults:          c.Faults,
		InterlockBreaks: c.InterlockBreaks,
	}
}

// EventName classifies a transition by its target state, e.g. "ARMED" or
// "LAUNCHING". Forced entries keep the same names.
func EventName(e logic.Event) string {
	return e.To.String()
}

// FormatPayload creates the JSON payload for a transition.
func FormatPayload(t Transition) ([]byte, error) {
	payload := Payload{
		Launch: LaunchPayload{
			Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
			Event:     EventName(t.Event),
			From:      t.Event.From.String(),
			To:        t.Event.To.String(),
			Reason:    t.Event.Reason,
			ClockMs:   t.Event.At,
			Counts:    NewCountsPayload(t.Counts),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained last-will message the broker publishes if the
// controller drops off without a clean shutdown. It carries no timestamp
// because it is registered at connect time.
func WillPayload() []byte {
	b, _ := json.Marshal(SystemPayload{
		System: SystemPayloadInner{Event: "LWT", Reason: "connection lost"},
	})
	return b
}
