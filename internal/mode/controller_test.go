package mode

import (
	"testing"

	"github.com/sweeney/dcfclock/internal/button"
	"github.com/sweeney/dcfclock/internal/calendar"
	"github.com/sweeney/dcfclock/internal/display"
	"github.com/sweeney/dcfclock/internal/gpio"
	"github.com/sweeney/dcfclock/internal/setting"
	"github.com/sweeney/dcfclock/internal/timebase"
)

var (
	none     = gpio.Levels{}
	modeOnly = gpio.Levels{Mode: true}
	upOnly   = gpio.Levels{Up: true}
	downOnly = gpio.Levels{Down: true}
	modeUp   = gpio.Levels{Mode: true, Up: true}
	modeDown = gpio.Levels{Mode: true, Down: true}
	upDown   = gpio.Levels{Up: true, Down: true}
)

var testLimits = Timeouts{Initial: 3, Normal: 10, Setting: 20}

type fakeCarrier struct{ on bool }

func (f *fakeCarrier) Pulse() bool { return f.on }

type harness struct {
	t       *testing.T
	disp    *display.Display
	keeper  *calendar.Keeper
	carrier *fakeCarrier
	ctrl    *Controller
}

var start = calendar.FromDate(2024, 3, 5, 9, 7)

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:       t,
		disp:    display.New(),
		keeper:  calendar.NewKeeper(timebase.Millis, start),
		carrier: &fakeCarrier{},
	}
	h.ctrl = NewController(h.disp, h.keeper, h.carrier, button.NewSet(button.ActiveHigh, 0), testLimits)
	return h
}

func (h *harness) scan(l gpio.Levels) []Change {
	return h.ctrl.Scan(l)
}

// tap presses l for one scan and releases everything on the next.
func (h *harness) tap(l gpio.Levels) []Change {
	changes := h.scan(l)
	return append(changes, h.scan(none)...)
}

func (h *harness) expectState(want ModeState) {
	h.t.Helper()
	if got := h.ctrl.State(); got != want {
		h.t.Fatalf("expected state %v, got %v", want, got)
	}
}

func (h *harness) expectOne(changes []Change, from, to ModeState, cause Cause) Change {
	h.t.Helper()
	if len(changes) != 1 {
		h.t.Fatalf("expected 1 change, got %v", changes)
	}
	ch := changes[0]
	if ch.From != from || ch.To != to || ch.Cause != cause {
		h.t.Fatalf("expected %v -> %v (%s), got %v", from, to, cause, ch)
	}
	return ch
}

func (h *harness) enterSetting() {
	h.t.Helper()
	h.scan(modeDown)
	h.scan(none)
	h.expectState(ModeState{Setting, HHMM})
}

func TestValid(t *testing.T) {
	for s := Normal; s <= Setting; s++ {
		for m := HHMM; m <= Blank; m++ {
			ms := ModeState{s, m}
			want := s != Setting || m == HHMM || m == DDMM || m == YYYY
			if got := ms.Valid(); got != want {
				t.Errorf("%v.Valid() = %v, want %v", ms, got, want)
			}
		}
	}
	if (ModeState{Normal, Mode(9)}).Valid() || (ModeState{State(5), HHMM}).Valid() {
		t.Error("expected out of range values to be invalid")
	}
}

func TestInitialFace(t *testing.T) {
	h := newHarness(t)
	var changes []Change
	for i := 0; i < testLimits.Initial; i++ {
		changes = append(changes, h.scan(none)...)
	}
	if len(changes) != 0 {
		t.Errorf("expected no change reverting to the base state, got %v", changes)
	}
	if h.ctrl.Timeout() != 0 {
		t.Errorf("expected timeout expired, got %d", h.ctrl.Timeout())
	}
	if got := h.ctrl.Face(); got != " 907" {
		t.Errorf("expected face \" 907\", got %q", got)
	}
}

func TestModeCycle(t *testing.T) {
	h := newHarness(t)
	seq := []Mode{MMSS, DDMM, YYYY, Blank, HHMM}
	faces := []string{"0700", "0503", "2024", "8888", " 907"}

	from := Base
	for i, m := range seq {
		to := ModeState{Normal, m}
		h.expectOne(h.tap(modeOnly), from, to, CauseMode)
		if got := h.ctrl.Face(); got != faces[i] {
			t.Errorf("%v: expected face %q, got %q", to, faces[i], got)
		}
		from = to
	}
}

func TestNormalBlankLightsEverything(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 4; i++ {
		h.tap(modeOnly)
	}
	h.expectState(ModeState{Normal, Blank})

	for i, b := range h.disp.Buffer() {
		if b != display.SegAll {
			t.Errorf("byte %d: expected all segments lit, got %#x", i, b)
		}
	}
}

func TestPowerToggle(t *testing.T) {
	h := newHarness(t)

	h.expectOne(h.tap(modeUp), Base, ModeState{Off, Blank}, CausePower)
	if h.disp.Buffer() != (display.Buffer{}) {
		t.Errorf("expected dark display, got %v", h.disp.Buffer())
	}

	h.expectOne(h.tap(modeUp), ModeState{Off, Blank}, Base, CausePower)
	if got := h.ctrl.Face(); got != " 907" {
		t.Errorf("expected time face, got %q", got)
	}
}

func TestOffPeekTimesOut(t *testing.T) {
	h := newHarness(t)
	h.tap(modeUp)

	h.expectOne(h.tap(modeOnly), ModeState{Off, Blank}, ModeState{Off, HHMM}, CauseMode)
	if got := h.ctrl.Face(); got != " 907" {
		t.Errorf("expected time face while peeking, got %q", got)
	}

	var changes []Change
	for i := 0; i < testLimits.Normal-1; i++ {
		changes = append(changes, h.scan(none)...)
	}
	h.expectOne(changes, ModeState{Off, HHMM}, ModeState{Off, Blank}, CauseTimeout)
	if h.disp.Buffer() != (display.Buffer{}) {
		t.Errorf("expected dark display, got %v", h.disp.Buffer())
	}
}

func TestOffBlankCycleStaysDark(t *testing.T) {
	h := newHarness(t)
	h.tap(modeUp)
	for i := 0; i < numModes; i++ {
		h.tap(modeOnly)
	}
	h.expectState(ModeState{Off, Blank})
	if h.disp.Buffer() != (display.Buffer{}) {
		t.Errorf("expected dark display in Off/Blank, got %v", h.disp.Buffer())
	}
}

func TestSettingCommit(t *testing.T) {
	h := newHarness(t)
	h.enterSetting()

	ed := h.ctrl.Editor()
	if ed.Digits() != (setting.Digits{0, 9, 0, 7}) {
		t.Fatalf("unexpected digits %v", ed.Digits())
	}
	if leds := h.disp.Buffer().LEDs(); leds != display.LeftDP1|display.Colon {
		t.Errorf("expected cursor on first digit, LEDs %#x", leds)
	}

	h.tap(upOnly) // 19:07
	h.tap(upDown) // cursor to digit 1
	if ed.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", ed.Cursor())
	}
	if leds := h.disp.Buffer().LEDs(); leds&display.LeftDP2 == 0 {
		t.Errorf("expected cursor on second digit, LEDs %#x", leds)
	}
	h.tap(downOnly) // 18:07

	h.expectOne(h.tap(modeOnly), ModeState{Setting, HHMM}, ModeState{Setting, DDMM}, CauseMode)
	if ed.Digits() != (setting.Digits{0, 5, 0, 3}) {
		t.Errorf("unexpected date digits %v", ed.Digits())
	}

	ch := h.expectOne(h.tap(modeDown), ModeState{Setting, DDMM}, Base, CauseSetting)
	want := calendar.FromDate(2024, 3, 5, 18, 7)
	if ch.Committed == nil || *ch.Committed != want {
		t.Fatalf("expected commit of %v, got %v", want, ch.Committed)
	}
	if got := h.keeper.Snapshot(); got != want {
		t.Errorf("expected clock %v, got %v", want, got)
	}
	if got := h.ctrl.Face(); got != "1807" {
		t.Errorf("expected face \"1807\", got %q", got)
	}
}

func TestSettingGroupCycle(t *testing.T) {
	h := newHarness(t)
	h.enterSetting()

	for _, m := range []Mode{DDMM, YYYY, HHMM} {
		h.tap(modeOnly)
		h.expectState(ModeState{Setting, m})
	}
	if h.disp.Buffer().LEDs()&display.Colon == 0 {
		t.Error("expected colon while editing time")
	}
}

func TestSettingAbandon(t *testing.T) {
	h := newHarness(t)
	h.enterSetting()
	h.tap(upOnly)

	ch := h.expectOne(h.tap(modeUp), ModeState{Setting, HHMM}, Base, CausePower)
	if ch.Committed != nil {
		t.Errorf("expected no commit, got %v", *ch.Committed)
	}
	if got := h.keeper.Snapshot(); got != start {
		t.Errorf("expected clock unchanged, got %v", got)
	}
}

func TestSettingTimeoutDiscards(t *testing.T) {
	h := newHarness(t)
	h.enterSetting()
	h.tap(upOnly)

	var changes []Change
	for i := 0; i < testLimits.Setting-1; i++ {
		changes = append(changes, h.scan(none)...)
	}
	ch := h.expectOne(changes, ModeState{Setting, HHMM}, Base, CauseTimeout)
	if ch.Committed != nil {
		t.Error("timeout must not commit")
	}
	if got := h.keeper.Snapshot(); got != start {
		t.Errorf("expected clock unchanged, got %v", got)
	}
	if got := h.ctrl.Face(); got != " 907" {
		t.Errorf("expected time face, got %q", got)
	}
}

func TestEnterSettingFromOff(t *testing.T) {
	h := newHarness(t)
	h.tap(modeUp)
	h.expectOne(h.tap(modeDown), ModeState{Off, Blank}, ModeState{Setting, HHMM}, CauseSetting)
}

func TestChordPriority(t *testing.T) {
	h := newHarness(t)
	// Mode held with Up and Down both new: Down wins.
	h.expectOne(h.tap(gpio.Levels{Mode: true, Up: true, Down: true}), Base, ModeState{Setting, HHMM}, CauseSetting)
}

func TestUpDownIgnoredOutsideSetting(t *testing.T) {
	h := newHarness(t)
	for _, l := range []gpio.Levels{upOnly, downOnly, upDown} {
		if changes := h.tap(l); len(changes) != 0 {
			t.Errorf("%+v: expected no change, got %v", l, changes)
		}
	}
	h.expectState(Base)
}

func TestInactivityRevertsOnce(t *testing.T) {
	h := newHarness(t)
	h.carrier = nil
	h.ctrl.carrier = nil
	h.tap(modeOnly)
	h.expectState(ModeState{Normal, MMSS})
	h.disp.Take()

	// The tap's release scan already counted once.
	for i := 0; i < testLimits.Normal-2; i++ {
		if changes := h.scan(none); len(changes) != 0 {
			t.Fatalf("scan %d: unexpected change %v", i, changes)
		}
	}
	if h.disp.Dirty() != 0 {
		t.Fatalf("expected clean display before timeout, got %v", h.disp.Dirty())
	}

	h.expectOne(h.scan(none), ModeState{Normal, MMSS}, Base, CauseTimeout)
	if h.disp.Dirty() == 0 {
		t.Fatal("expected display dirty after revert")
	}
	h.disp.Take()

	for i := 0; i < 3*testLimits.Normal; i++ {
		if changes := h.scan(none); len(changes) != 0 {
			t.Fatalf("unexpected second revert: %v", changes)
		}
	}
	if h.disp.Dirty() != 0 {
		t.Errorf("expected display clean after revert, got %v", h.disp.Dirty())
	}
}

func TestHeldButtonHoldsTimeout(t *testing.T) {
	h := newHarness(t)
	h.tap(modeOnly)
	for i := 0; i < 5*testLimits.Normal; i++ {
		h.scan(upOnly)
	}
	h.expectState(ModeState{Normal, MMSS})
	if h.ctrl.Timeout() != testLimits.Normal {
		t.Errorf("expected timeout held at %d, got %d", testLimits.Normal, h.ctrl.Timeout())
	}
}

func TestCarrierEcho(t *testing.T) {
	h := newHarness(t)
	h.carrier.on = true
	h.scan(none)
	if h.disp.Buffer().LEDs()&display.LeftDP1 == 0 {
		t.Error("expected carrier shown on first decimal point")
	}
	h.carrier.on = false
	h.scan(none)
	if h.disp.Buffer().LEDs()&display.LeftDP1 != 0 {
		t.Error("expected carrier indicator off")
	}

	h.tap(modeUp)
	h.carrier.on = true
	h.scan(none)
	if h.disp.Buffer().LEDs() != 0 {
		t.Errorf("expected no indicator while off, LEDs %#x", h.disp.Buffer().LEDs())
	}
}

func TestFaceFollowsClock(t *testing.T) {
	h := newHarness(t)
	h.scan(none)
	if got := h.ctrl.Face(); got != " 907" {
		t.Fatalf("unexpected face %q", got)
	}

	h.keeper.Restore(calendar.FromDate(2024, 3, 5, 10, 59))
	h.scan(none)
	if got := h.ctrl.Face(); got != "1059" {
		t.Errorf("expected face to follow the clock, got %q", got)
	}
}

func TestScans(t *testing.T) {
	if DefaultTimeouts != (Timeouts{Initial: 50, Normal: 500, Setting: 3500}) {
		t.Errorf("unexpected defaults %+v", DefaultTimeouts)
	}
}
