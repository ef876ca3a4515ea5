// Package dcf receives and decodes the DCF77 longwave time signal.
//
// The transmitter reduces its carrier at the start of every second. A
// reduction of about 100 ms encodes a 0 bit, about 200 ms a 1 bit. Second
// 59 carries no reduction, so the gap before second 0 is about two seconds
// long and marks the start of a minute. The 59 bits of a minute encode the
// time of the following minute in BCD, protected by three even parity bits.
package dcf

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/sweeney/dcfclock/internal/calendar"
)

// FrameBits is the number of bits in a complete minute frame.
const FrameBits = 59

// Bit positions within a frame.
const (
	bitStart      = 0  // start of minute, always 0
	bitCEST       = 17 // summer time in effect
	bitCET        = 18 // standard time in effect
	bitLeapSecond = 19 // leap second announcement
	bitTimeStart  = 20 // start of encoded time, always 1
	bitMinute     = 21 // 7 bits, parity at 28
	bitHour       = 29 // 6 bits, parity at 35
	bitDay        = 36 // 6 bits
	bitWeekday    = 42 // 3 bits
	bitMonth      = 45 // 5 bits
	bitYear       = 50 // 8 bits, date parity at 58 covers 36..57
)

// Frame errors. A frame that fails any check is discarded.
var (
	ErrShortFrame = errors.New("dcf: short frame")
	ErrLongFrame  = errors.New("dcf: long frame")
	ErrFixedBits  = errors.New("dcf: fixed bit error")
	ErrParity     = errors.New("dcf: parity error")
	ErrRange      = errors.New("dcf: field out of range")
)

// Frame is a bit vector of up to FrameBits bits, filled LSB first.
type Frame struct {
	bits uint64
	n    int
}

// Push appends a bit. It returns false if the frame is already full.
func (f *Frame) Push(bit bool) bool {
	if f.n >= FrameBits {
		return false
	}
	if bit {
		f.bits |= 1 << uint(f.n)
	}
	f.n++
	return true
}

// Reset empties the frame.
func (f *Frame) Reset() {
	*f = Frame{}
}

// Len returns the number of bits received.
func (f Frame) Len() int {
	return f.n
}

// Bit returns bit i.
func (f Frame) Bit(i int) bool {
	return f.bits&(1<<uint(i)) != 0
}

// String renders the received bits, bit 0 first.
func (f Frame) String() string {
	var sb strings.Builder
	for i := 0; i < f.n; i++ {
		if f.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (f Frame) field(lo, width int) uint64 {
	return (f.bits >> uint(lo)) & (1<<uint(width) - 1)
}

// Time is the content of one decoded frame. Year is the full year.
type Time struct {
	Year       int
	Month      int
	Day        int
	Weekday    int // 1 = Monday .. 7 = Sunday
	Hour       int
	Minute     int
	CEST       bool
	LeapSecond bool
}

// Calendar converts t to a calendar with seconds set to zero.
func (t Time) Calendar() calendar.Calendar {
	return calendar.FromDate(t.Year, t.Month, t.Day, t.Hour, t.Minute)
}

var weekdays = [8]string{"??", "Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

func (t Time) String() string {
	zone := "CET"
	if t.CEST {
		zone = "CEST"
	}
	wd := weekdays[0]
	if t.Weekday >= 1 && t.Weekday <= 7 {
		wd = weekdays[t.Weekday]
	}
	return fmt.Sprintf("%s %04d-%02d-%02d %02d:%02d %s", wd, t.Year, t.Month, t.Day, t.Hour, t.Minute, zone)
}

// Decode validates a frame and extracts its time.
func Decode(f Frame) (Time, error) {
	if f.n < FrameBits {
		return Time{}, fmt.Errorf("%w: %d bits", ErrShortFrame, f.n)
	}
	if f.Bit(bitStart) || !f.Bit(bitTimeStart) {
		return Time{}, ErrFixedBits
	}

	var failed []string
	if odd(f.field(bitMinute, 8)) {
		failed = append(failed, "minute")
	}
	if odd(f.field(bitHour, 7)) {
		failed = append(failed, "hour")
	}
	if odd(f.field(bitDay, 23)) {
		failed = append(failed, "date")
	}
	if len(failed) > 0 {
		return Time{}, fmt.Errorf("%w: %s", ErrParity, strings.Join(failed, ","))
	}

	var t Time
	fields := []struct {
		name      string
		dst       *int
		lo, width int
		min, max  int
	}{
		{"minute", &t.Minute, bitMinute, 7, 0, 59},
		{"hour", &t.Hour, bitHour, 6, 0, 23},
		{"day", &t.Day, bitDay, 6, 1, 31},
		{"weekday", &t.Weekday, bitWeekday, 3, 1, 7},
		{"month", &t.Month, bitMonth, 5, 1, 12},
		{"year", &t.Year, bitYear, 8, 0, 99},
	}
	for _, fd := range fields {
		v, ok := fromBCD(f.field(fd.lo, fd.width))
		if !ok || v < fd.min || v > fd.max {
			return Time{}, fmt.Errorf("%w: %s", ErrRange, fd.name)
		}
		*fd.dst = v
	}
	t.Year += 2000
	t.CEST = f.Bit(bitCEST)
	t.LeapSecond = f.Bit(bitLeapSecond)
	return t, nil
}

// Encode builds the frame a transmitter sends for t, parity included.
// Fields are not range checked.
func Encode(t Time) Frame {
	var v uint64
	put := func(lo int, x uint64) { v |= x << uint(lo) }

	if t.CEST {
		put(bitCEST, 1)
	} else {
		put(bitCET, 1)
	}
	if t.LeapSecond {
		put(bitLeapSecond, 1)
	}
	put(bitTimeStart, 1)

	put(bitMinute, toBCD(t.Minute))
	put(bitMinute+7, parity(toBCD(t.Minute)))
	put(bitHour, toBCD(t.Hour))
	put(bitHour+6, parity(toBCD(t.Hour)))

	date := toBCD(t.Day) | toBCD(t.Weekday)<<6 | toBCD(t.Month)<<9 | toBCD(t.Year%100)<<14
	put(bitDay, date)
	put(bitYear+8, parity(date))

	return Frame{bits: v, n: FrameBits}
}

func odd(x uint64) bool {
	return bits.OnesCount64(x)%2 != 0
}

func parity(x uint64) uint64 {
	return uint64(bits.OnesCount64(x) % 2)
}

func toBCD(n int) uint64 {
	return uint64(n/10)<<4 | uint64(n%10)
}

func fromBCD(x uint64) (int, bool) {
	lo, hi := x&0x0f, x>>4
	if lo > 9 || hi > 9 {
		return 0, false
	}
	return int(hi*10 + lo), true
}
