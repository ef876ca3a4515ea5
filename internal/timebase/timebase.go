// Package timebase defines the free-running tick counter that drives the
// scheduler and the sources that produce it.
//
// Ticks wrap. Elapsed time is always computed with unsigned subtraction,
// which stays correct across wraparound as long as less than half the
// counter range passes between two reads.
package timebase

import (
	"fmt"
	"strings"
	"time"
)

// Ticks is one reading of the tick counter.
type Ticks uint32

// Source reads the tick counter.
type Source func() Ticks

// Since returns the ticks elapsed from then to now, modulo 2^32.
func Since(now, then Ticks) Ticks {
	return now - then
}

// Base describes the rate of a tick source.
type Base struct {
	Name      string
	PerSecond uint32
}

// Supported timebases. Millis is the default; the mains variants count
// cycles of a rectified mains input.
var (
	Millis   = Base{Name: "millis", PerSecond: 1000}
	Mains50  = Base{Name: "50hz", PerSecond: 50}
	Mains100 = Base{Name: "100hz", PerSecond: 100}
)

// Ticks converts milliseconds to ticks of this base, rounding down.
func (b Base) Ticks(ms uint32) Ticks {
	return Ticks(uint64(ms) * uint64(b.PerSecond) / 1000)
}

// Second is the number of ticks in one second.
func (b Base) Second() Ticks {
	return Ticks(b.PerSecond)
}

func (b Base) String() string {
	return b.Name
}

// Parse looks up a timebase by name.
func Parse(name string) (Base, error) {
	switch strings.ToLower(name) {
	case Millis.Name, "":
		return Millis, nil
	case Mains50.Name:
		return Mains50, nil
	case Mains100.Name:
		return Mains100, nil
	}
	return Base{}, fmt.Errorf("unknown timebase %q (want millis, 50hz or 100hz)", name)
}

// Monotonic returns a millisecond Source counting from start. It uses the
// monotonic clock reading carried by start, so wall clock steps do not
// disturb it.
func Monotonic(start time.Time) Source {
	return func() Ticks {
		return Ticks(uint64(time.Since(start).Milliseconds()))
	}
}

// Manual is a Source whose value is set by hand. Not safe for concurrent use.
type Manual struct {
	T Ticks
}

// Now returns the current manual reading.
func (m *Manual) Now() Ticks {
	return m.T
}

// Advance moves the reading forward by n ticks.
func (m *Manual) Advance(n Ticks) {
	m.T += n
}
