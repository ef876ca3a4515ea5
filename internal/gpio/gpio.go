// Package gpio connects the clock to its GPIO lines: the three buttons,
// the DCF77 receiver output and its power-on line, and an optional mains
// frequency input used as a timebase.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/dcfclock/internal/timebase"
)

// Levels is one raw sample of the button lines. true means the line is
// high; polarity is applied by the caller.
type Levels struct {
	Mode bool
	Up   bool
	Down bool
}

// Reader reads the button lines.
type Reader interface {
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// EdgeHandler receives the tick at which a line changed and its new
// logical level. It runs on the GPIO event goroutine.
type EdgeHandler func(at timebase.Ticks, level bool)

// Pins holds line offsets on the GPIO chip (BCM numbering on a Pi).
// A negative offset means the line is not connected.
type Pins struct {
	Mode     int
	Up       int
	Down     int
	DCF      int
	DCFPower int
	Mains    int
}

// DefaultPins matches the clock board wiring.
var DefaultPins = Pins{
	Mode:     17,
	Up:       27,
	Down:     22,
	DCF:      23,
	DCFPower: 24,
	Mains:    -1,
}

// DefaultChip is the GPIO chip the lines live on.
const DefaultChip = "gpiochip0"

// EdgeClock converts kernel edge timestamps to ticks. The first edge is
// anchored to a reading of now and later edges are placed by their
// timestamp difference from it, so event handling latency does not leak
// into pulse widths. Only a millisecond source can be mapped this way;
// for any other source Stamp reads now directly.
type EdgeClock struct {
	now      timebase.Source
	kernel   bool
	anchored bool
	at       time.Duration
	tick     timebase.Ticks
}

// NewEdgeClock returns an EdgeClock for a source of the given base.
func NewEdgeClock(now timebase.Source, base timebase.Base) *EdgeClock {
	return &EdgeClock{now: now, kernel: base == timebase.Millis}
}

// Stamp returns the tick of an edge the kernel timestamped at ts. It is
// called from a single event goroutine.
func (c *EdgeClock) Stamp(ts time.Duration) timebase.Ticks {
	if !c.kernel {
		return c.now()
	}
	if !c.anchored || ts < c.at {
		c.anchored = true
		c.at = ts
		c.tick = c.now()
		return c.tick
	}
	return c.tick + timebase.Ticks(uint64((ts-c.at)/time.Millisecond))
}
