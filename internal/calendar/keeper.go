package calendar

import (
	"errors"

	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
)

// ErrInvalid is returned when a calendar with out-of-range fields is offered.
var ErrInvalid = errors.New("calendar: invalid calendar")

// All marks every field as changed.
const All = Second | Minute | Hour | Day | Year

// Keeper is the once-per-second timekeeping task. It owns the current
// calendar; other components read it with Snapshot and replace it with
// Restore or Sync, always from the scheduler loop.
type Keeper struct {
	second  timebase.Ticks
	cal     Calendar
	changed Field
	task    *tasker.Task
}

// NewKeeper creates a Keeper that starts at cal.
func NewKeeper(base timebase.Base, cal Calendar) *Keeper {
	return &Keeper{second: base.Second(), cal: cal, changed: All}
}

// Init arms the first one-second timeout.
func (k *Keeper) Init(t *tasker.Task) {
	k.task = t
	t.Timer = k.second
}

// Run advances the calendar by one second.
func (k *Keeper) Run(t *tasker.Task, elapsed timebase.Ticks) {
	t.Timer += k.second
	k.changed |= k.cal.TickSecond()
}

// Snapshot returns a copy of the current calendar.
func (k *Keeper) Snapshot() Calendar {
	return k.cal
}

// Restore replaces the current calendar.
func (k *Keeper) Restore(c Calendar) {
	k.cal = c
	k.changed |= All
}

// Sync restores c, which was valid age ticks ago, and realigns the
// one-second timeout so the next tick lands on the true second boundary.
func (k *Keeper) Sync(c Calendar, age timebase.Ticks) error {
	if !c.Valid() {
		return ErrInvalid
	}
	c.Advance(uint64(age / k.second))
	k.Restore(c)
	if k.task != nil {
		k.task.Timer = k.second - age%k.second
	}
	return nil
}

// TakeChanged returns the fields changed since the last call and clears
// the record.
func (k *Keeper) TakeChanged() Field {
	f := k.changed
	k.changed = 0
	return f
}
