package gpio

import (
	"sync/atomic"

	"github.com/sweeney/dcfclock/internal/timebase"
)

// Counter counts edges of a periodic input. Used with a rectified mains
// signal it is a 50 or 100 Hz tick source that stays locked to the grid.
type Counter struct {
	n atomic.Uint32
}

// Edge records one edge. It is called from the GPIO event goroutine.
func (c *Counter) Edge() {
	c.n.Add(1)
}

// Now returns the number of edges seen so far.
func (c *Counter) Now() timebase.Ticks {
	return timebase.Ticks(c.n.Load())
}
