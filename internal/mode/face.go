package mode

import (
	"github.com/sweeney/dcfclock/internal/calendar"
	"github.com/sweeney/dcfclock/internal/display"
)

// Fields each face depends on.
const (
	hhmmFields = calendar.Minute | calendar.Hour | calendar.Day | calendar.Year
	ddmmFields = calendar.Day | calendar.Year
	yyyyFields = calendar.Year
)

// render updates the display for the current state. Faces are redrawn
// when the calendar fields they show have changed.
func (c *Controller) render() {
	changed := c.clock.TakeChanged()
	if c.redraw {
		changed = calendar.All
		c.redraw = false
	}

	if c.ms.State == Setting {
		c.renderEditor()
		return
	}

	cal := c.clock.Snapshot()
	switch c.ms.Mode {
	case HHMM:
		if changed&hhmmFields != 0 {
			c.disp.SetPair(0, cal.Hour, true)
			c.disp.SetPair(2, cal.Min, false)
		}
		if changed != 0 {
			c.disp.SetColon(cal.Sec%2 == 0)
		}
	case MMSS:
		if changed != 0 {
			c.disp.SetPair(0, cal.Min, false)
			c.disp.SetPair(2, cal.Sec, false)
			c.disp.SetColon(cal.Sec%2 == 0)
		}
	case DDMM:
		if changed&ddmmFields != 0 {
			m, d := cal.MonthDay()
			c.disp.SetPair(0, d, false)
			c.disp.SetPair(2, m, false)
			c.disp.SetColon(true)
		}
	case YYYY:
		if changed&yyyyFields != 0 {
			c.disp.SetNumber(cal.Year)
			c.disp.SetColon(false)
		}
	case Blank:
		return
	}

	if c.ms.State == Normal && c.carrier != nil {
		c.disp.SetLeftDP(0, c.carrier.Pulse())
	}
}

func (c *Controller) renderEditor() {
	digits := c.editor.Digits()
	for i, d := range digits {
		c.disp.SetDigit(i, d)
	}
	c.disp.ClearLeftDPs()
	c.disp.SetLeftDP(c.editor.Cursor(), true)
	c.disp.SetColon(c.ms.Mode != YYYY)
}

// Face returns the digits of the current face as text, for status
// output. Blank faces read as spaces.
func (c *Controller) Face() string {
	buf := c.disp.Buffer()
	out := make([]byte, display.NumDigits)
	for i := range out {
		out[i] = glyphChar(buf.Digit(i))
	}
	return string(out)
}

func glyphChar(segs byte) byte {
	segs &^= display.SegDP
	if segs == 0 {
		return ' '
	}
	for v := 0; v < 16; v++ {
		if display.Glyph(v) == segs {
			return "0123456789AbCdEF"[v]
		}
	}
	return '8'
}
