// Package clock assembles the radio clock: the calendar keeper, the DCF77
// decoder, the button controller and the display driver, all dispatched
// by one scheduler.
package clock

import (
	"github.com/sweeney/dcfclock/internal/button"
	"github.com/sweeney/dcfclock/internal/calendar"
	"github.com/sweeney/dcfclock/internal/dcf"
	"github.com/sweeney/dcfclock/internal/display"
	"github.com/sweeney/dcfclock/internal/gpio"
	"github.com/sweeney/dcfclock/internal/mode"
	"github.com/sweeney/dcfclock/internal/status"
	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
)

// Task names, in dispatch order.
const (
	TaskDisplay    = "display"
	TaskTimekeeper = "timekeeper"
	TaskDCF        = "dcf"
	TaskButtons    = "buttons"
	TaskStatus     = "status"
)

// Options configures the clock.
type Options struct {
	Base      timebase.Base
	ActiveLow bool // buttons pull their line low when pressed
	Debounce  int  // scans a button change must persist
	Timeouts  mode.Timeouts
	Start     calendar.Calendar
}

// DefaultOptions runs on the millisecond timebase from the default calendar.
func DefaultOptions() Options {
	return Options{
		Base:     timebase.Millis,
		Timeouts: mode.DefaultTimeouts,
		Start:    calendar.Default,
	}
}

// Hardware is what the clock reads from and drives.
type Hardware struct {
	Now      timebase.Source
	Buttons  gpio.Reader
	Receiver dcf.Receiver // nil when the receiver has no power line
	Sink     display.Sink
}

// Hooks are optional callbacks made from the scheduler loop.
type Hooks struct {
	OnResult func(dcf.Result)
	OnChange func(mode.Change)
	// OnSecond runs once a second after the other tasks.
	OnSecond func()
}

// Clock is the assembled task table. Feed receiver edges to
// Decoder.Edge from the edge capture goroutine and call Scheduler.Pass
// from the loop.
type Clock struct {
	Keeper     *calendar.Keeper
	Decoder    *dcf.Decoder
	Display    *display.Display
	Buttons    *button.Set
	Controller *mode.Controller
	Scheduler  *tasker.Scheduler
}

// New builds the clock. Nothing runs until Scheduler.Setup is called.
func New(opts Options, hw Hardware, hooks Hooks) *Clock {
	polarity := button.ActiveHigh
	if opts.ActiveLow {
		polarity = button.ActiveLow
	}

	c := &Clock{
		Keeper:  calendar.NewKeeper(opts.Base, opts.Start),
		Decoder: dcf.NewDecoder(dcf.DefaultConfig(opts.Base)),
		Display: display.New(),
		Buttons: button.NewSet(polarity, opts.Debounce),
	}
	c.Controller = mode.NewController(c.Display, c.Keeper, c.Decoder, c.Buttons, opts.Timeouts)

	radio := dcf.NewJob(c.Decoder, hw.Receiver, c.Keeper, hw.Now, opts.Base)
	radio.OnResult = hooks.OnResult
	scan := mode.NewJob(c.Controller, hw.Buttons, opts.Base)
	scan.OnChange = hooks.OnChange

	onSecond := hooks.OnSecond
	if onSecond == nil {
		onSecond = func() {}
	}

	// The keeper comes before the decoder task: a sync sets the keeper's
	// timer after this pass has already settled it.
	c.Scheduler = tasker.New(hw.Now,
		&tasker.Task{Name: TaskDisplay, Job: display.NewDriver(c.Display, hw.Sink, opts.Base)},
		&tasker.Task{Name: TaskTimekeeper, Job: c.Keeper},
		&tasker.Task{Name: TaskDCF, Job: radio},
		&tasker.Task{Name: TaskButtons, Job: scan},
		&tasker.Task{Name: TaskStatus, Job: tasker.Every(opts.Base.Second(), func(timebase.Ticks) { onSecond() })},
	)
	return c
}

// Report copies the clock's state into the tracker.
func (c *Clock) Report(tr *status.Tracker) {
	tr.UpdateClock(c.Keeper.Snapshot(), c.Controller.State().String(), c.Controller.Face(), status.ButtonCounts{
		Mode: c.Buttons.Presses(button.Mode),
		Up:   c.Buttons.Presses(button.Up),
		Down: c.Buttons.Presses(button.Down),
	})
	tr.SetDCF(c.Decoder.State().String(), c.Decoder.Pulse())

	tasks := c.Scheduler.Tasks()
	ts := make([]status.TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		ts = append(ts, status.TaskStatus{Name: t.Name, Overruns: t.Overruns()})
	}
	tr.SetTasks(ts)
}
