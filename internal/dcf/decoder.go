package dcf

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/dcfclock/internal/timebase"
)

var (
	framesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dcfclock_dcf_frames_total",
		Help: "count of minute frames evaluated at a minute marker, by result",
	}, []string{"result"})

	resyncCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dcfclock_dcf_resyncs_total",
		Help: "count of times the decoder abandoned a frame and went back to sync search",
	}, []string{"reason"})

	droppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dcfclock_dcf_results_dropped_total",
		Help: "count of frame results discarded because nobody collected the previous ones",
	})
)

// State is the decoder state.
type State int32

const (
	// PowerOnDelay waits for the receiver to be switched on.
	PowerOnDelay State = iota
	// SyncSearch looks for the two-second gap of a minute marker.
	SyncSearch
	// ReceivingOne is inside a carrier reduction, waiting for its end.
	ReceivingOne
	// ReceivingZero is between reductions, waiting for the next second.
	ReceivingZero
)

func (s State) String() string {
	switch s {
	case PowerOnDelay:
		return "power-on"
	case SyncSearch:
		return "sync"
	case ReceivingOne:
		return "pulse"
	case ReceivingZero:
		return "gap"
	}
	return "unknown"
}

// Config holds the timing windows, in ticks. All windows are inclusive.
type Config struct {
	PowerOnDelay timebase.Ticks
	Debounce     timebase.Ticks
	MinZero      timebase.Ticks
	MaxZero      timebase.Ticks
	MinOne       timebase.Ticks
	MaxOne       timebase.Ticks
	MinSecond    timebase.Ticks
	MaxSecond    timebase.Ticks
	MinSync      timebase.Ticks
	MaxSync      timebase.Ticks
}

// DefaultConfig returns the standard windows for the given timebase.
func DefaultConfig(b timebase.Base) Config {
	return Config{
		PowerOnDelay: b.Ticks(1100),
		Debounce:     b.Ticks(60),
		MinZero:      b.Ticks(80),
		MaxZero:      b.Ticks(120),
		MinOne:       b.Ticks(180),
		MaxOne:       b.Ticks(220),
		MinSecond:    b.Ticks(900),
		MaxSecond:    b.Ticks(1100),
		MinSync:      b.Ticks(1900),
		MaxSync:      b.Ticks(2200),
	}
}

func within(v, lo, hi timebase.Ticks) bool {
	return v >= lo && v <= hi
}

// Result is the outcome of one minute frame.
type Result struct {
	Time  Time
	Frame Frame
	// At is the tick of the minute marker's leading edge, the instant
	// Time became valid.
	At  timebase.Ticks
	Err error
}

// resultBuffer is the number of undelivered results kept.
const resultBuffer = 4

// Decoder turns receiver edges into minute frames.
//
// Edge must only be called from one goroutine, the edge capture path.
// Everything else may be called from any goroutine. Frames in progress
// never leave the decoder; the rest of the program sees only complete
// results through Take.
type Decoder struct {
	cfg Config

	// Owned by the edge path.
	state       State
	frame       Frame
	lastEdge    timebase.Ticks
	lastLeading timebase.Ticks

	powered   atomic.Bool
	pulse     atomic.Bool
	stateView atomic.Int32
	results   chan Result
}

// NewDecoder creates a decoder in PowerOnDelay.
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{
		cfg:     cfg,
		results: make(chan Result, resultBuffer),
	}
}

// PowerOn tells the decoder the receiver is running. Edges seen before
// are ignored.
func (d *Decoder) PowerOn() {
	d.powered.Store(true)
}

// State returns the current decoder state.
func (d *Decoder) State() State {
	return State(d.stateView.Load())
}

// Pulse reports whether the receiver output was active at the last edge.
func (d *Decoder) Pulse() bool {
	return d.pulse.Load()
}

// Take returns the oldest undelivered result, if any.
func (d *Decoder) Take() (Result, bool) {
	select {
	case r := <-d.results:
		return r, true
	default:
		return Result{}, false
	}
}

// Edge handles one transition of the receiver output. level is true at
// the start of a carrier reduction (leading edge) and false at its end.
func (d *Decoder) Edge(t timebase.Ticks, level bool) {
	d.pulse.Store(level)

	if d.state == PowerOnDelay {
		if d.powered.Load() && level {
			d.lastEdge = t
			d.lastLeading = t
			d.setState(SyncSearch)
		}
		return
	}

	if timebase.Since(t, d.lastEdge) < d.cfg.Debounce {
		return
	}
	d.lastEdge = t

	if level {
		d.leading(t)
	} else {
		d.trailing(t)
	}
}

func (d *Decoder) leading(t timebase.Ticks) {
	interval := timebase.Since(t, d.lastLeading)
	d.lastLeading = t

	switch d.state {
	case SyncSearch:
		if within(interval, d.cfg.MinSync, d.cfg.MaxSync) {
			d.startFrame()
		}
	case ReceivingOne:
		d.resync("missed trailing edge")
	case ReceivingZero:
		switch {
		case within(interval, d.cfg.MinSecond, d.cfg.MaxSecond):
			d.setState(ReceivingOne)
		case within(interval, d.cfg.MinSync, d.cfg.MaxSync):
			d.minuteMarker(t)
		default:
			d.resync("second interval")
		}
	}
}

func (d *Decoder) trailing(t timebase.Ticks) {
	switch d.state {
	case ReceivingOne:
		width := timebase.Since(t, d.lastLeading)
		var bit bool
		switch {
		case within(width, d.cfg.MinZero, d.cfg.MaxZero):
			bit = false
		case within(width, d.cfg.MinOne, d.cfg.MaxOne):
			bit = true
		default:
			d.resync("pulse width")
			return
		}
		if !d.frame.Push(bit) {
			d.emit(Result{Frame: d.frame, At: t, Err: ErrLongFrame})
			d.resync("frame overflow")
			return
		}
		d.setState(ReceivingZero)
	case ReceivingZero:
		d.resync("unexpected trailing edge")
	}
}

// minuteMarker evaluates the frame collected so far and starts the next.
func (d *Decoder) minuteMarker(t timebase.Ticks) {
	res := Result{Frame: d.frame, At: t}
	res.Time, res.Err = Decode(d.frame)
	d.emit(res)
	d.startFrame()
}

func (d *Decoder) startFrame() {
	d.frame.Reset()
	d.setState(ReceivingOne)
}

func (d *Decoder) resync(reason string) {
	resyncCounter.WithLabelValues(reason).Inc()
	d.frame.Reset()
	d.setState(SyncSearch)
}

func (d *Decoder) setState(s State) {
	d.state = s
	d.stateView.Store(int32(s))
}

func (d *Decoder) emit(r Result) {
	framesCounter.WithLabelValues(resultLabel(r.Err)).Inc()
	select {
	case d.results <- r:
	default:
		droppedCounter.Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrShortFrame):
		return "short"
	case errors.Is(err, ErrLongFrame):
		return "long"
	case errors.Is(err, ErrFixedBits):
		return "fixed_bits"
	case errors.Is(err, ErrParity):
		return "parity"
	case errors.Is(err, ErrRange):
		return "range"
	}
	return "other"
}
