// Package mode interprets the Mode, Up and Down buttons. It owns the
// display state and mode, the inactivity timeout, and the face drawn on
// the display.
// This package has no hardware dependencies; button levels are passed in.
package mode

import (
	"fmt"

	"github.com/sweeney/dcfclock/internal/calendar"
)

// State is the top-level display state.
type State int

const (
	Normal State = iota
	Off
	Setting
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Off:
		return "off"
	case Setting:
		return "setting"
	}
	return "unknown"
}

// Mode is the face shown, or in Setting the field group being edited.
type Mode int

const (
	HHMM Mode = iota
	MMSS
	DDMM
	YYYY
	Blank

	numModes = 5
)

func (m Mode) String() string {
	switch m {
	case HHMM:
		return "hhmm"
	case MMSS:
		return "mmss"
	case DDMM:
		return "ddmm"
	case YYYY:
		return "yyyy"
	case Blank:
		return "blank"
	}
	return "unknown"
}

// ModeState is the combined display state and mode.
type ModeState struct {
	State State
	Mode  Mode
}

// Base is the state the inactivity timeout returns to.
var Base = ModeState{Normal, HHMM}

// Valid reports whether s is a reachable combination. Normal and Off
// take any mode; Setting only the three editable groups.
func (s ModeState) Valid() bool {
	if s.Mode < HHMM || s.Mode > Blank {
		return false
	}
	switch s.State {
	case Normal, Off:
		return true
	case Setting:
		return s.Mode == HHMM || s.Mode == DDMM || s.Mode == YYYY
	}
	return false
}

func (s ModeState) String() string {
	return s.State.String() + "/" + s.Mode.String()
}

// Cause names the gesture behind a change.
type Cause string

const (
	CauseTimeout Cause = "timeout"
	CausePower   Cause = "power"   // Mode + Up
	CauseSetting Cause = "setting" // Mode + Down
	CauseMode    Cause = "mode"    // Mode alone
)

// Change is one transition of the ModeState.
type Change struct {
	From  ModeState
	To    ModeState
	Cause Cause

	// Committed is the calendar stored when leaving Setting with a commit.
	Committed *calendar.Calendar
}

func (c Change) String() string {
	s := fmt.Sprintf("%v -> %v (%s)", c.From, c.To, c.Cause)
	if c.Committed != nil {
		s += fmt.Sprintf(" set %v", *c.Committed)
	}
	return s
}
