// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dcfclock/internal/dcf"
	"github.com/sweeney/dcfclock/internal/mode"
)

// Topic is the MQTT topic for clock events.
const Topic = "clock/dcf/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "clock/dcf/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a clock event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// EventType names a clock event.
type EventType string

const (
	EventSync   EventType = "SYNC"   // radio frame committed to the clock
	EventReject EventType = "REJECT" // radio frame discarded
	EventMode   EventType = "MODE"   // display state changed
	EventSet    EventType = "SET"    // clock set by hand
)

// Event is a clock event to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Radio     string // decoded radio time (SYNC)
	Frame     string // received bits (REJECT)
	Reason    string // rejection reason (REJECT)
	From      string // previous display state (MODE, SET)
	To        string // new display state (MODE, SET)
	Clock     string // clock after the change (SET)
}

// ResultEvent converts a decoder result.
func ResultEvent(ts time.Time, r dcf.Result) Event {
	if r.Err != nil {
		return Event{Timestamp: ts, Type: EventReject, Frame: r.Frame.String(), Reason: r.Err.Error()}
	}
	return Event{Timestamp: ts, Type: EventSync, Radio: r.Time.String()}
}

// ChangeEvent converts a display state change. A change that committed a
// hand-set calendar becomes a SET event.
func ChangeEvent(ts time.Time, ch mode.Change) Event {
	e := Event{Timestamp: ts, Type: EventMode, From: ch.From.String(), To: ch.To.String()}
	if ch.Committed != nil {
		e.Type = EventSet
		e.Clock = ch.Committed.String()
	}
	return e
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
	Clock ClockPayload `json:"clock"`
}

// ClockPayload contains the clock event details.
type ClockPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Radio     string `json:"radio,omitempty"`
	Frame     string `json:"frame,omitempty"`
	Reason    string `json:"reason,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Clock     string `json:"clock,omitempty"`
}

// FormatPayload creates the JSON payload for a clock event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Clock: ClockPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Radio:     event.Radio,
			Frame:     event.Frame,
			Reason:    event.Reason,
			From:      event.From,
			To:        event.To,
			Clock:     event.Clock,
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
	Timestamp string `json:"timestamp"`
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
