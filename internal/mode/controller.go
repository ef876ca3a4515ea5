package mode

import (
	"log"
	"time"

	"github.com/sweeney/dcfclock/internal/button"
	"github.com/sweeney/dcfclock/internal/calendar"
	"github.com/sweeney/dcfclock/internal/display"
	"github.com/sweeney/dcfclock/internal/gpio"
	"github.com/sweeney/dcfclock/internal/setting"
)

// ScanInterval is the button scan period.
const ScanInterval = 20 * time.Millisecond

// Clock is the calendar the controller shows and edits.
type Clock interface {
	Snapshot() calendar.Calendar
	Restore(c calendar.Calendar)
	// TakeChanged returns the fields changed since the last call.
	TakeChanged() calendar.Field
}

// Carrier reports the state of the radio signal.
type Carrier interface {
	Pulse() bool
}

// Timeouts are inactivity timeouts counted in scans.
type Timeouts struct {
	Initial int
	Normal  int
	Setting int
}

// DefaultTimeouts are 1 s after start, 10 s normally, 70 s while setting.
var DefaultTimeouts = Timeouts{
	Initial: Scans(time.Second),
	Normal:  Scans(10 * time.Second),
	Setting: Scans(70 * time.Second),
}

// Scans converts a duration to a number of button scans.
func Scans(d time.Duration) int {
	return int(d / ScanInterval)
}

// Controller is the display mode state machine. It is the only writer
// of the display buffer.
type Controller struct {
	disp    *display.Display
	clock   Clock
	carrier Carrier
	buttons *button.Set
	limits  Timeouts

	editor  setting.Editor
	ms      ModeState
	timeout int
	redraw  bool
}

// NewController starts in Normal/HHMM with the initial timeout running.
// carrier may be nil.
func NewController(disp *display.Display, clock Clock, carrier Carrier, buttons *button.Set, limits Timeouts) *Controller {
	return &Controller{
		disp:    disp,
		clock:   clock,
		carrier: carrier,
		buttons: buttons,
		limits:  limits,
		ms:      Base,
		timeout: limits.Initial,
		redraw:  true,
	}
}

// State returns the current mode state.
func (c *Controller) State() ModeState {
	return c.ms
}

// Editor returns the setting editor. Its contents are meaningful only
// while the state is Setting.
func (c *Controller) Editor() *setting.Editor {
	return &c.editor
}

// Timeout returns the scans left before the inactivity timeout fires.
func (c *Controller) Timeout() int {
	return c.timeout
}

// Scan processes one sample of the button lines and redraws the face. It
// returns the state change made, if any.
func (c *Controller) Scan(l gpio.Levels) []Change {
	c.buttons.Update(l)
	b := c.buttons

	var changes []Change
	add := func(ch *Change) {
		if ch != nil {
			changes = append(changes, *ch)
		}
	}

	pressed := b.New(button.Mode) || b.New(button.Up) || b.New(button.Down)
	editing := c.ms.State == Setting

	switch {
	case b.Held(button.Mode) && b.New(button.Down):
		add(c.toggleSetting())
	case b.Held(button.Mode) && b.New(button.Up):
		add(c.togglePower())
	case b.New(button.Mode):
		add(c.advance())
	case editing && (b.Held(button.Up) && b.New(button.Down) || b.Held(button.Down) && b.New(button.Up)):
		c.editor.NextDigit()
	case editing && b.New(button.Up):
		c.editor.Inc()
	case editing && b.New(button.Down):
		c.editor.Dec()
	}

	if pressed {
		c.resetTimeout()
	} else if b.AllReleased() && c.timeout > 0 {
		c.timeout--
		if c.timeout == 0 {
			add(c.revert())
		}
	}

	c.render()
	return changes
}

func (c *Controller) resetTimeout() {
	if c.ms.State == Setting {
		c.timeout = c.limits.Setting
	} else {
		c.timeout = c.limits.Normal
	}
}

// set moves to s and marks the whole display for redraw.
func (c *Controller) set(s ModeState, cause Cause) *Change {
	if !s.Valid() {
		log.Printf("mode: refusing unreachable state %v", s)
		return nil
	}
	from := c.ms
	c.ms = s
	c.redraw = true
	if s.Mode != Blank {
		c.disp.ClearLeftDPs()
	}
	c.disp.MarkDirty(display.DirtyAll)
	if from == s {
		return nil
	}
	modeChanges.WithLabelValues(s.State.String(), s.Mode.String()).Inc()
	return &Change{From: from, To: s, Cause: cause}
}

// revert handles the inactivity timeout.
func (c *Controller) revert() *Change {
	if c.ms.State == Off {
		c.disp.Clear()
		return c.set(ModeState{Off, Blank}, CauseTimeout)
	}
	if c.ms != Base {
		c.disp.Clear()
	}
	return c.set(Base, CauseTimeout)
}

// togglePower switches between Normal and Off. Setting is abandoned.
func (c *Controller) togglePower() *Change {
	switch c.ms.State {
	case Normal:
		c.disp.Clear()
		return c.set(ModeState{Off, Blank}, CausePower)
	default:
		c.disp.Clear()
		return c.set(Base, CausePower)
	}
}

// toggleSetting enters Setting from Normal or Off, or leaves it with a
// commit.
func (c *Controller) toggleSetting() *Change {
	c.disp.Clear()
	if c.ms.State != Setting {
		c.editor.Enter(c.clock.Snapshot())
		return c.set(ModeState{Setting, HHMM}, CauseSetting)
	}

	cal := c.editor.Exit()
	c.clock.Restore(cal)
	ch := c.set(Base, CauseSetting)
	ch.Committed = &cal
	return ch
}

// advance handles Mode pressed alone.
func (c *Controller) advance() *Change {
	if c.ms.State == Setting {
		c.editor.NextGroup()
		c.disp.Clear()
		return c.set(ModeState{Setting, groupMode(c.editor.Group())}, CauseMode)
	}

	next := (c.ms.Mode + 1) % numModes
	switch {
	case next == Blank && c.ms.State == Normal:
		c.disp.Fill()
	default:
		// Entering Blank while Off, and leaving Blank, both start dark.
		c.disp.Clear()
	}
	return c.set(ModeState{c.ms.State, next}, CauseMode)
}

func groupMode(g setting.Group) Mode {
	switch g {
	case setting.Date:
		return DDMM
	case setting.Year:
		return YYYY
	}
	return HHMM
}
