// Package calendar keeps the local date and time.
//
// A Calendar stores the day as a 0-based day of the year. Month and day of
// month are derived on demand from the month-length table, with February
// patched for leap years.
package calendar

import "fmt"

// MinYear is the earliest year a Calendar can hold.
const MinYear = 2000

// Field is a bit mask of calendar fields that changed.
type Field uint8

const (
	Second Field = 1 << iota
	Minute
	Hour
	Day
	Year
)

// Calendar is a point in local time.
type Calendar struct {
	Year int // >= MinYear
	Day  int // day of year, 0..364 (365 in leap years)
	Hour int // 0..23
	Min  int // 0..59
	Sec  int // 0..59
}

// Default is the calendar the clock starts with when no radio time has
// been received: 2020-10-10 00:00:00.
var Default = Calendar{Year: 2020, Day: 283}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeap reports whether y is a Gregorian leap year.
func IsLeap(y int) bool {
	if y%4 != 0 {
		return false
	}
	if y%100 != 0 {
		return true
	}
	return y%400 == 0
}

// DaysInYear returns 365 or 366.
func DaysInYear(y int) int {
	if IsLeap(y) {
		return 366
	}
	return 365
}

// MonthDays returns the month-length table for year y.
func MonthDays(y int) [12]int {
	md := monthDays
	if IsLeap(y) {
		md[1] = 29
	}
	return md
}

// TickSecond advances the calendar by one second and returns the fields
// that changed.
func (c *Calendar) TickSecond() Field {
	changed := Second
	c.Sec++
	if c.Sec < 60 {
		return changed
	}
	c.Sec = 0
	c.Min++
	changed |= Minute
	if c.Min < 60 {
		return changed
	}
	c.Min = 0
	c.Hour++
	changed |= Hour
	if c.Hour < 24 {
		return changed
	}
	c.Hour = 0
	c.Day++
	changed |= Day
	if c.Day < DaysInYear(c.Year) {
		return changed
	}
	c.Day = 0
	c.Year++
	return changed | Year
}

// Advance moves the calendar forward by n seconds and returns the union
// of changed fields. The result equals n calls to TickSecond.
func (c *Calendar) Advance(n uint64) Field {
	if n == 0 {
		return 0
	}
	var changed Field = Second
	secs := uint64(c.Sec) + n
	c.Sec = int(secs % 60)
	mins := uint64(c.Min) + secs/60
	if secs < 60 {
		return changed
	}
	changed |= Minute
	c.Min = int(mins % 60)
	if mins < 60 {
		return changed
	}
	changed |= Hour
	hours := uint64(c.Hour) + mins/60
	c.Hour = int(hours % 24)
	if hours < 24 {
		return changed
	}
	changed |= Day
	days := uint64(hours / 24)
	for days > 0 {
		left := uint64(DaysInYear(c.Year) - c.Day)
		if days < left {
			c.Day += int(days)
			break
		}
		days -= left
		c.Day = 0
		c.Year++
		changed |= Year
	}
	return changed
}

// MonthDay returns the month (1..12) and day of month (1..31).
func (c Calendar) MonthDay() (month, day int) {
	md := MonthDays(c.Year)
	d := c.Day + 1
	m := 0
	for m < 11 && d > md[m] {
		d -= md[m]
		m++
	}
	return m + 1, d
}

// FromDate builds a Calendar from a civil date and time. Month is clamped
// to 1..12, day to the length of that month, year to MinYear.
func FromDate(year, month, day, hour, min int) Calendar {
	if year < MinYear {
		year = MinYear
	}
	month = clamp(month, 1, 12)
	md := MonthDays(year)
	day = clamp(day, 1, md[month-1])

	doy := day - 1
	for m := 0; m < month-1; m++ {
		doy += md[m]
	}
	return Calendar{
		Year: year,
		Day:  doy,
		Hour: clamp(hour, 0, 23),
		Min:  clamp(min, 0, 59),
	}
}

// Valid reports whether every field is in range.
func (c Calendar) Valid() bool {
	return c.Year >= MinYear &&
		c.Day >= 0 && c.Day < DaysInYear(c.Year) &&
		c.Hour >= 0 && c.Hour < 24 &&
		c.Min >= 0 && c.Min < 60 &&
		c.Sec >= 0 && c.Sec < 60
}

func (c Calendar) String() string {
	m, d := c.MonthDay()
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", c.Year, m, d, c.Hour, c.Min, c.Sec)
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
