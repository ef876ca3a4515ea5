package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Clock         string      `json:"clock"`
	Mode          string      `json:"mode"`
	Face          string      `json:"face"`
	Synced        bool        `json:"synced"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	DCF           DCFJSON     `json:"dcf"`
	Buttons       ButtonsJSON `json:"buttons"`
	Tasks         []TaskJSON  `json:"tasks"`
	Config        ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// DCFJSON is the JSON representation of the receiver state.
type DCFJSON struct {
	State     string `json:"state"`
	Carrier   bool   `json:"carrier"`
	Synced    int    `json:"frames_synced"`
	Rejected  int    `json:"frames_rejected"`
	LastSync  string `json:"last_sync,omitempty"`
	LastRadio string `json:"last_radio,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// ButtonsJSON is the JSON representation of button press counts.
type ButtonsJSON struct {
	Mode int `json:"mode"`
	Up   int `json:"up"`
	Down int `json:"down"`
}

// TaskJSON is the JSON representation of one scheduler task.
type TaskJSON struct {
	Name     string `json:"name"`
	Overruns uint64 `json:"overruns"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Timebase    string `json:"timebase"`
	Chip        string `json:"chip"`
	ActiveLow   bool   `json:"active_low"`
	Display     string `json:"display"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Clock:         snap.Clock.String(),
		Mode:          snap.Mode,
		Face:          snap.Face,
		Synced:        snap.Synced(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		DCF: DCFJSON{
			State:     snap.DCF.State,
			Carrier:   snap.DCF.Carrier,
			Synced:    snap.DCF.Synced,
			Rejected:  snap.DCF.Rejected,
			LastRadio: snap.DCF.LastRadio,
			LastError: snap.DCF.LastError,
		},
		Buttons: ButtonsJSON{
			Mode: snap.Buttons.Mode,
			Up:   snap.Buttons.Up,
			Down: snap.Buttons.Down,
		},
		Tasks: make([]TaskJSON, 0, len(snap.Tasks)),
		Config: ConfigJSON{
			Timebase:    snap.Config.Timebase,
			Chip:        snap.Config.Chip,
			ActiveLow:   snap.Config.ActiveLow,
			Display:     snap.Config.Display,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}
	if !snap.DCF.LastSync.IsZero() {
		inner.DCF.LastSync = snap.DCF.LastSync.UTC().Format(time.RFC3339)
	}
	for _, t := range snap.Tasks {
		inner.Tasks = append(inner.Tasks, TaskJSON{Name: t.Name, Overruns: t.Overruns})
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
