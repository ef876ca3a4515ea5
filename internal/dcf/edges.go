package dcf

import "github.com/sweeney/dcfclock/internal/timebase"

// Edge is one transition of the receiver output.
type Edge struct {
	At    timebase.Ticks
	Level bool
}

// Pulse widths and spacing of an ideal transmitter, in milliseconds.
const (
	zeroWidthMs = 100
	oneWidthMs  = 200
	secondMs    = 1000
)

// Edges returns the receiver output for one minute carrying f. The first
// edge is the leading edge of second 0 at start; the last is the leading
// edge of the following minute marker, which completes the frame.
func (f Frame) Edges(start timebase.Ticks, b timebase.Base) []Edge {
	edges := make([]Edge, 0, 2*f.n+1)
	for i := 0; i < f.n; i++ {
		at := start + b.Ticks(uint32(i*secondMs))
		width := uint32(zeroWidthMs)
		if f.Bit(i) {
			width = oneWidthMs
		}
		edges = append(edges,
			Edge{At: at, Level: true},
			Edge{At: at + b.Ticks(width), Level: false},
		)
	}
	edges = append(edges, Edge{At: start + b.Ticks(60*secondMs), Level: true})
	return edges
}
