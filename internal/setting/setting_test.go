package setting

import (
	"testing"

	"github.com/sweeney/dcfclock/internal/calendar"
)

func TestTimeRoundTrip(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			gh, gm := DecodeTime(EncodeTime(h, m))
			if gh != h || gm != m {
				t.Fatalf("%02d:%02d decoded as %02d:%02d", h, m, gh, gm)
			}
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	for _, year := range []int{2023, 2024} {
		md := calendar.MonthDays(year)
		for m := 1; m <= 12; m++ {
			for d := 1; d <= md[m-1]; d++ {
				gm, gd := DecodeDate(EncodeDate(m, d), year)
				if gm != m || gd != d {
					t.Fatalf("%d-%02d-%02d decoded as %02d-%02d", year, m, d, gm, gd)
				}
			}
		}
	}
}

func TestYearRoundTrip(t *testing.T) {
	for y := calendar.MinYear; y <= 9999; y++ {
		if got := DecodeYear(EncodeYear(y)); got != y {
			t.Fatalf("%d decoded as %d", y, got)
		}
	}
}

func TestDecodeClamps(t *testing.T) {
	if h, m := DecodeTime(Digits{2, 9, 5, 9}); h != 23 || m != 59 {
		t.Errorf("expected 23:59, got %02d:%02d", h, m)
	}
	if m, d := DecodeDate(Digits{3, 1, 0, 2}, 2023); m != 2 || d != 28 {
		t.Errorf("expected 02-28, got %02d-%02d", m, d)
	}
	if m, d := DecodeDate(Digits{3, 1, 0, 2}, 2024); m != 2 || d != 29 {
		t.Errorf("expected 02-29, got %02d-%02d", m, d)
	}
	if m, d := DecodeDate(Digits{0, 0, 1, 9}, 2024); m != 12 || d != 1 {
		t.Errorf("expected 12-01, got %02d-%02d", m, d)
	}
	if m, d := DecodeDate(Digits{1, 5, 0, 0}, 2024); m != 1 || d != 15 {
		t.Errorf("expected 01-15, got %02d-%02d", m, d)
	}
	if y := DecodeYear(Digits{1, 9, 9, 9}); y != calendar.MinYear {
		t.Errorf("expected %d, got %d", calendar.MinYear, y)
	}
}

func TestEnterLoadsTime(t *testing.T) {
	var e Editor
	e.Enter(calendar.FromDate(2024, 3, 5, 14, 37))

	if e.Group() != Time {
		t.Errorf("expected time group, got %v", e.Group())
	}
	if e.Digits() != (Digits{1, 4, 3, 7}) {
		t.Errorf("unexpected digits %v", e.Digits())
	}
	if e.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", e.Cursor())
	}
}

func TestIncDecWrap(t *testing.T) {
	var e Editor
	e.Enter(calendar.FromDate(2024, 3, 5, 23, 0))

	e.Inc() // hour tens 2 -> 0
	if e.Digits()[0] != 0 {
		t.Errorf("expected wrap to 0, got %d", e.Digits()[0])
	}
	e.Dec() // 0 -> 2
	if e.Digits()[0] != 2 {
		t.Errorf("expected wrap to 2, got %d", e.Digits()[0])
	}

	e.NextDigit()
	e.NextDigit()
	e.Dec() // minute tens 0 -> 5
	if e.Digits()[2] != 5 {
		t.Errorf("expected wrap to 5, got %d", e.Digits()[2])
	}

	// Digits do not carry into their neighbours.
	e.NextDigit()
	for i := 0; i < 10; i++ {
		e.Inc()
	}
	if e.Digits() != (Digits{2, 3, 5, 0}) {
		t.Errorf("unexpected digits %v", e.Digits())
	}
}

func TestHourOnesBoundFollowsTens(t *testing.T) {
	var e Editor
	e.Enter(calendar.FromDate(2024, 3, 5, 19, 5))

	e.Inc() // hour tens 1 -> 2
	if e.Digits() != (Digits{2, 3, 0, 5}) {
		t.Fatalf("expected 23:05 after raising tens, got %v", e.Digits())
	}

	e.NextDigit()
	e.Inc() // 3 wraps to 0 while tens is 2
	if e.Digits()[1] != 0 {
		t.Errorf("expected hour ones to wrap at 3, got %d", e.Digits()[1])
	}
	e.Dec() // 0 wraps back to 3
	if e.Digits()[1] != 3 {
		t.Errorf("expected hour ones to wrap to 3, got %d", e.Digits()[1])
	}

	tests := []struct {
		tens int
		want int
	}{
		{0, 9},
		{1, 9},
		{2, 3},
	}
	for _, tt := range tests {
		e.Enter(calendar.FromDate(2024, 3, 5, tt.tens*10, 0))
		e.NextDigit()
		e.Dec()
		if got := e.Digits()[1]; got != tt.want {
			t.Errorf("tens %d: expected hour ones bound %d, got %d", tt.tens, tt.want, got)
		}
	}
}

func TestHourNeverShownPast23(t *testing.T) {
	var e Editor
	e.Enter(calendar.Default)
	for i := 0; i < 40; i++ {
		e.Inc()
		e.NextDigit()
		e.Inc()
		e.Inc()
		e.NextDigit()
		e.NextDigit()
		e.NextDigit()
		d := e.Digits()
		if h := d[0]*10 + d[1]; h > 23 {
			t.Fatalf("step %d: editor shows hour %d", i, h)
		}
	}
}

func TestNextDigitWraps(t *testing.T) {
	var e Editor
	e.Enter(calendar.Default)
	for i := 0; i < 4; i++ {
		e.NextDigit()
	}
	if e.Cursor() != 0 {
		t.Errorf("expected cursor back at 0, got %d", e.Cursor())
	}
}

func TestGroupCycle(t *testing.T) {
	var e Editor
	e.Enter(calendar.FromDate(2024, 3, 5, 14, 37))
	e.NextDigit()

	e.NextGroup()
	if e.Group() != Date || e.Digits() != (Digits{0, 5, 0, 3}) || e.Cursor() != 0 {
		t.Errorf("unexpected date state %v %v cursor %d", e.Group(), e.Digits(), e.Cursor())
	}
	e.NextGroup()
	if e.Group() != Year || e.Digits() != (Digits{2, 0, 2, 4}) {
		t.Errorf("unexpected year state %v %v", e.Group(), e.Digits())
	}
	e.NextGroup()
	if e.Group() != Time {
		t.Errorf("expected time group again, got %v", e.Group())
	}
}

func TestExitCommits(t *testing.T) {
	start := calendar.FromDate(2024, 3, 5, 14, 37)
	start.Sec = 42

	var e Editor
	e.Enter(start)
	e.Inc() // 14:37 -> 23:37, hour ones pulled down to 3
	e.NextGroup()

	// 05-03 -> 29-03
	e.Inc()
	e.Inc()
	e.NextDigit()
	for i := 0; i < 4; i++ {
		e.Inc()
	}
	e.NextGroup()

	// 2024 -> 2023
	for i := 0; i < 3; i++ {
		e.NextDigit()
	}
	e.Dec()

	got := e.Exit()
	want := calendar.FromDate(2023, 3, 29, 23, 37)
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got.Sec != 0 {
		t.Errorf("expected seconds cleared, got %d", got.Sec)
	}
}

func TestYearCommitClampsLeapDay(t *testing.T) {
	var e Editor
	e.Enter(calendar.FromDate(2024, 2, 29, 12, 0))
	e.NextGroup()
	e.NextGroup()
	for i := 0; i < 3; i++ {
		e.NextDigit()
	}
	e.Inc() // 2025

	got := e.Exit()
	if m, d := got.MonthDay(); got.Year != 2025 || m != 2 || d != 28 {
		t.Errorf("expected 2025-02-28, got %v", got)
	}
}

func TestDateCommitUsesLeapYear(t *testing.T) {
	var e Editor
	e.Enter(calendar.FromDate(2023, 1, 31, 0, 0))
	e.NextGroup()
	// 31-01 -> 31-02, clamped to 28 in 2023
	e.NextDigit()
	e.NextDigit()
	e.NextDigit()
	e.Inc()

	got := e.Exit()
	if m, d := got.MonthDay(); m != 2 || d != 28 {
		t.Errorf("expected 02-28, got %v", got)
	}
}
