// Package status provides a thread-safe status tracker for the dcfclock daemon.
// The scheduler loop writes it; HTTP handlers and MQTT heartbeats read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dcfclock/internal/calendar"
)

// Config contains daemon configuration for display.
type Config struct {
	Timebase    string
	Chip        string
	ActiveLow   bool
	Display     string // SPI port, or "none"
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
}

// DCFStatus is the radio receiver state.
type DCFStatus struct {
	State     string
	Carrier   bool
	Synced    int
	Rejected  int
	LastSync  time.Time // zero until the first good frame
	LastRadio string
	LastError string
}

// ButtonCounts are press counts since start.
type ButtonCounts struct {
	Mode int
	Up   int
	Down int
}

// TaskStatus is one scheduler task.
type TaskStatus struct {
	Name     string
	Overruns uint64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Clock         calendar.Calendar
	Mode          string
	Face          string
	Buttons       ButtonCounts
	DCF           DCFStatus
	Tasks         []TaskStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Synced reports whether the clock has taken time from the radio.
func (s Snapshot) Synced() bool {
	return s.DCF.Synced > 0
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

// UpdateClock sets the calendar, display state and button counts.
func (t *Tracker) UpdateClock(cal calendar.Calendar, mode, face string, buttons ButtonCounts) {
	t.mu.Lock()
	t.snap.Clock = cal
	t.snap.Mode = mode
	t.snap.Face = face
	t.snap.Buttons = buttons
	t.mu.Unlock()
}

// SetDCF sets the decoder state and carrier level.
func (t *Tracker) SetDCF(state string, carrier bool) {
	t.mu.Lock()
	t.snap.DCF.State = state
	t.snap.DCF.Carrier = carrier
	t.mu.Unlock()
}

// RecordResult counts one frame result. radio is the decoded time of a
// good frame; err is the reason a frame was rejected.
func (t *Tracker) RecordResult(at time.Time, radio string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.snap.DCF.Rejected++
		t.snap.DCF.LastError = err.Error()
		return
	}
	t.snap.DCF.Synced++
	t.snap.DCF.LastSync = at
	t.snap.DCF.LastRadio = radio
}

// SetTasks sets the scheduler task overrun counts.
func (t *Tracker) SetTasks(tasks []TaskStatus) {
	cp := append([]TaskStatus(nil), tasks...)
	t.mu.Lock()
	t.snap.Tasks = cp
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
