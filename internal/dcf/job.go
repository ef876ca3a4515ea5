package dcf

import (
	"log"

	"github.com/sweeney/dcfclock/internal/calendar"
	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
)

// Receiver switches the radio receiver module on and off.
type Receiver interface {
	SetPower(on bool) error
}

// Syncer accepts a radio calendar that became valid age ticks ago.
type Syncer interface {
	Sync(c calendar.Calendar, age timebase.Ticks) error
}

// Job is the scheduler task that powers up the receiver and commits
// decoded frames to the clock. Decoding itself happens on the edge path.
type Job struct {
	dec      *Decoder
	rx       Receiver
	clock    Syncer
	now      timebase.Source
	delay    timebase.Ticks
	interval timebase.Ticks
	started  bool

	// OnResult, if set, is called for every frame result after it has
	// been handled.
	OnResult func(Result)
}

// NewJob creates the decoder task. rx may be nil when the receiver has no
// power control line.
func NewJob(dec *Decoder, rx Receiver, clock Syncer, now timebase.Source, b timebase.Base) *Job {
	return &Job{
		dec:      dec,
		rx:       rx,
		clock:    clock,
		now:      now,
		delay:    dec.cfg.PowerOnDelay,
		interval: b.Ticks(100),
	}
}

// Init holds the receiver off for the power-on delay.
func (j *Job) Init(t *tasker.Task) {
	t.Timer = j.delay
	if j.rx != nil {
		if err := j.rx.SetPower(false); err != nil {
			log.Printf("dcf: receiver power off: %v", err)
		}
	}
}

// Run switches the receiver on after the delay, then collects results.
func (j *Job) Run(t *tasker.Task, elapsed timebase.Ticks) {
	t.Timer += j.interval

	if !j.started {
		j.started = true
		if j.rx != nil {
			if err := j.rx.SetPower(true); err != nil {
				log.Printf("dcf: receiver power on: %v", err)
			}
		}
		j.dec.PowerOn()
		log.Printf("dcf: receiver on, searching for minute marker")
		return
	}

	for {
		res, ok := j.dec.Take()
		if !ok {
			return
		}
		j.handle(res)
	}
}

func (j *Job) handle(res Result) {
	if res.Err != nil {
		log.Printf("dcf: frame rejected: %v (%s)", res.Err, res.Frame)
	} else {
		age := timebase.Since(j.now(), res.At)
		if err := j.clock.Sync(res.Time.Calendar(), age); err != nil {
			log.Printf("dcf: commit %v: %v", res.Time, err)
		} else {
			log.Printf("dcf: synced to %v", res.Time)
		}
	}
	if j.OnResult != nil {
		j.OnResult(res)
	}
}
