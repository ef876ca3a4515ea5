// Package setting edits the calendar one field group at a time on the
// four display digits.
//
// Each group is shown as four decimal digits. Up and Down change the
// digit under the cursor and wrap within that digit's bounds without
// carrying into its neighbour. The hour ones digit stops at 3 while the
// hour tens digit is 2, so the time group never shows an hour past 23.
// Dates are validated and clamped only when the group is committed.
package setting

import "github.com/sweeney/dcfclock/internal/calendar"

// Group is a field group being edited.
type Group int

const (
	Time Group = iota // hours and minutes
	Date              // day and month
	Year
)

func (g Group) String() string {
	switch g {
	case Time:
		return "time"
	case Date:
		return "date"
	case Year:
		return "year"
	}
	return "unknown"
}

// Digits is one group as shown on the display, left to right.
type Digits [4]int

// Per-digit upper bounds. TimeMax[1] drops to maxHourOnesAt2 when the
// hour tens digit is 2.
var (
	TimeMax = Digits{2, 9, 5, 9}
	DateMax = Digits{3, 9, 1, 9}
	YearMax = Digits{9, 9, 9, 9}
)

const maxHourOnesAt2 = 3

// Editor holds a calendar snapshot and the digits of the group being edited.
type Editor struct {
	cal    calendar.Calendar
	group  Group
	digits Digits
	max    Digits
	cursor int
}

// Enter starts editing cal at the time group.
func (e *Editor) Enter(cal calendar.Calendar) {
	e.cal = cal
	e.load(Time)
}

// Group returns the group being edited.
func (e *Editor) Group() Group {
	return e.group
}

// Digits returns the digits being edited.
func (e *Editor) Digits() Digits {
	return e.digits
}

// Cursor returns the index of the digit Inc and Dec act on.
func (e *Editor) Cursor() int {
	return e.cursor
}

// Inc increments the digit under the cursor, wrapping past its bound to 0.
func (e *Editor) Inc() {
	d := &e.digits[e.cursor]
	if *d >= e.bound(e.cursor) {
		*d = 0
	} else {
		*d++
	}
	e.fit()
}

// Dec decrements the digit under the cursor, wrapping below 0 to its bound.
func (e *Editor) Dec() {
	d := &e.digits[e.cursor]
	if *d <= 0 {
		*d = e.bound(e.cursor)
	} else {
		*d--
	}
	e.fit()
}

// bound returns the current upper bound of digit i.
func (e *Editor) bound(i int) int {
	if e.group == Time && i == 1 && e.digits[0] == 2 {
		return maxHourOnesAt2
	}
	return e.max[i]
}

// fit pulls the hour ones digit down when a change to the tens digit
// lowered its bound.
func (e *Editor) fit() {
	if b := e.bound(1); e.digits[1] > b {
		e.digits[1] = b
	}
}

// NextDigit moves the cursor right, wrapping from the last digit to the first.
func (e *Editor) NextDigit() {
	e.cursor = (e.cursor + 1) % len(e.digits)
}

// NextGroup commits the current group and moves to the next one, wrapping
// from year back to time.
func (e *Editor) NextGroup() {
	e.commit()
	e.load((e.group + 1) % 3)
}

// Exit commits the current group and returns the edited calendar with
// seconds set to zero.
func (e *Editor) Exit() calendar.Calendar {
	e.commit()
	c := e.cal
	c.Sec = 0
	return c
}

func (e *Editor) load(g Group) {
	e.group = g
	e.cursor = 0
	switch g {
	case Time:
		e.digits, e.max = EncodeTime(e.cal.Hour, e.cal.Min), TimeMax
	case Date:
		m, d := e.cal.MonthDay()
		e.digits, e.max = EncodeDate(m, d), DateMax
	case Year:
		e.digits, e.max = EncodeYear(e.cal.Year), YearMax
	}
	e.fit()
}

func (e *Editor) commit() {
	c := e.cal
	m, d := c.MonthDay()
	year := c.Year

	switch e.group {
	case Time:
		c.Hour, c.Min = DecodeTime(e.digits)
		e.cal = c
		return
	case Date:
		m, d = DecodeDate(e.digits, year)
	case Year:
		year = DecodeYear(e.digits)
	}

	sec := c.Sec
	e.cal = calendar.FromDate(year, m, d, c.Hour, c.Min)
	e.cal.Sec = sec
}

func split(a, b int) Digits {
	return Digits{a / 10 % 10, a % 10, b / 10 % 10, b % 10}
}

func join(hi, lo int) int {
	return hi*10 + lo
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EncodeTime renders hour and minute as HHMM digits.
func EncodeTime(hour, min int) Digits {
	return split(hour, min)
}

// DecodeTime reads HHMM digits. The hour is clamped to 23 for digits that
// did not come from an Editor.
func DecodeTime(d Digits) (hour, min int) {
	return clamp(join(d[0], d[1]), 0, 23), clamp(join(d[2], d[3]), 0, 59)
}

// EncodeDate renders month and day as DDMM digits.
func EncodeDate(month, day int) Digits {
	return split(day, month)
}

// DecodeDate reads DDMM digits. The month is clamped to 1..12 and the day
// to the length of that month in year.
func DecodeDate(d Digits, year int) (month, day int) {
	month = clamp(join(d[2], d[3]), 1, 12)
	day = clamp(join(d[0], d[1]), 1, calendar.MonthDays(year)[month-1])
	return month, day
}

// EncodeYear renders a year as four digits.
func EncodeYear(year int) Digits {
	return Digits{year / 1000 % 10, year / 100 % 10, year / 10 % 10, year % 10}
}

// DecodeYear reads four year digits, clamped to calendar.MinYear.
func DecodeYear(d Digits) int {
	y := d[0]*1000 + d[1]*100 + d[2]*10 + d[3]
	if y < calendar.MinYear {
		return calendar.MinYear
	}
	return y
}
