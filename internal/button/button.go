// Package button turns raw button line levels into debounced pressed
// states and press edges.
// This package has no hardware dependencies; samples are passed in.
package button

import "github.com/sweeney/dcfclock/internal/gpio"

// State is the logical state of one button.
type State bool

const (
	Released State = false
	Pressed  State = true
)

func (s State) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// ID names a button.
type ID int

const (
	Mode ID = iota
	Up
	Down

	Count = 3
)

var names = [Count]string{"mode", "up", "down"}

func (id ID) String() string {
	if id < 0 || int(id) >= Count {
		return "unknown"
	}
	return names[id]
}

// Polarity maps line levels to button states.
type Polarity bool

const (
	ActiveHigh Polarity = false
	ActiveLow  Polarity = true
)

// State converts a raw line level.
func (p Polarity) State(level bool) State {
	return State(level != bool(p))
}

// Button tracks one button across scans.
type Button struct {
	Cur  State
	Prev State

	// scans the raw state has differed from Cur
	differ int
}

// New reports a press edge: released on the previous scan, pressed now.
func (b Button) New() bool {
	return b.Prev == Released && b.Cur == Pressed
}

// Held reports whether the button is pressed.
func (b Button) Held() bool {
	return b.Cur == Pressed
}

func (b *Button) update(raw State, stable int) {
	b.Prev = b.Cur
	if raw == b.Cur {
		b.differ = 0
		return
	}
	b.differ++
	if b.differ > stable {
		b.Cur = raw
		b.differ = 0
	}
}

// Set is the Mode, Up and Down buttons.
type Set struct {
	polarity Polarity
	stable   int
	buttons  [Count]Button
	presses  [Count]int
}

// NewSet creates a button set. A raw change must persist for more than
// stable scans before it is accepted; 0 accepts it on the first scan.
func NewSet(p Polarity, stable int) *Set {
	return &Set{polarity: p, stable: stable}
}

// Update takes one scan of the lines.
func (s *Set) Update(l gpio.Levels) {
	raw := [Count]bool{l.Mode, l.Up, l.Down}
	for id := range s.buttons {
		b := &s.buttons[id]
		b.update(s.polarity.State(raw[id]), s.stable)
		if b.New() {
			s.presses[id]++
		}
	}
}

// Held reports whether id is pressed.
func (s *Set) Held(id ID) bool {
	return s.buttons[id].Held()
}

// New reports whether id was pressed on this scan.
func (s *Set) New(id ID) bool {
	return s.buttons[id].New()
}

// AllReleased reports whether no button is pressed.
func (s *Set) AllReleased() bool {
	for _, b := range s.buttons {
		if b.Held() {
			return false
		}
	}
	return true
}

// Presses returns the number of press edges seen on id since start.
func (s *Set) Presses(id ID) int {
	return s.presses[id]
}
