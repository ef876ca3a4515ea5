package dcf

import (
	"errors"
	"testing"

	"github.com/sweeney/dcfclock/internal/calendar"
	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
)

type fakeReceiver struct {
	calls []bool
	err   error
}

func (f *fakeReceiver) SetPower(on bool) error {
	f.calls = append(f.calls, on)
	return f.err
}

type syncCall struct {
	cal calendar.Calendar
	age timebase.Ticks
}

type fakeSyncer struct {
	calls []syncCall
	err   error
}

func (f *fakeSyncer) Sync(c calendar.Calendar, age timebase.Ticks) error {
	f.calls = append(f.calls, syncCall{c, age})
	return f.err
}

type jobHarness struct {
	clock *timebase.Manual
	dec   *Decoder
	rx    *fakeReceiver
	sync  *fakeSyncer
	job   *Job
	sched *tasker.Scheduler
	seen  []Result
}

func newJobHarness() *jobHarness {
	h := &jobHarness{
		clock: &timebase.Manual{},
		rx:    &fakeReceiver{},
		sync:  &fakeSyncer{},
	}
	h.dec = NewDecoder(DefaultConfig(timebase.Millis))
	h.job = NewJob(h.dec, h.rx, h.sync, h.clock.Now, timebase.Millis)
	h.job.OnResult = func(r Result) { h.seen = append(h.seen, r) }
	h.sched = tasker.New(h.clock.Now, &tasker.Task{Name: "dcf", Job: h.job})
	h.sched.Setup()
	return h
}

// passTo moves the clock to t and runs one scheduler pass.
func (h *jobHarness) passTo(t timebase.Ticks) {
	h.clock.T = t
	h.sched.Pass()
}

// receive powers the receiver, syncs on a leading edge at 2000 and feeds
// one minute carrying f starting at 4000.
func (h *jobHarness) receive(f Frame) {
	h.passTo(1100)
	h.dec.Edge(2000, true)
	feed(h.dec, f.Edges(4000, timebase.Millis))
}

func TestJobPowerSequence(t *testing.T) {
	h := newJobHarness()
	if len(h.rx.calls) != 1 || h.rx.calls[0] {
		t.Fatalf("expected receiver held off at init, got %v", h.rx.calls)
	}

	h.passTo(1000)
	if len(h.rx.calls) != 1 {
		t.Fatalf("receiver switched before the power-on delay: %v", h.rx.calls)
	}
	h.dec.Edge(1050, true)
	if h.dec.State() != PowerOnDelay {
		t.Errorf("expected edges ignored before power on, got %v", h.dec.State())
	}

	h.passTo(1100)
	if len(h.rx.calls) != 2 || !h.rx.calls[1] {
		t.Fatalf("expected receiver on after 1100 ms, got %v", h.rx.calls)
	}
	h.dec.Edge(1200, true)
	if h.dec.State() != SyncSearch {
		t.Errorf("expected SyncSearch, got %v", h.dec.State())
	}
}

func TestJobCommitsFrameWithAge(t *testing.T) {
	h := newJobHarness()
	h.receive(Encode(knownTime))

	// The marker arrived at 64000; the task sees it 250 ms later.
	h.passTo(64250)

	if len(h.sync.calls) != 1 {
		t.Fatalf("expected 1 sync, got %d", len(h.sync.calls))
	}
	got := h.sync.calls[0]
	if got.cal != knownTime.Calendar() {
		t.Errorf("expected %v, got %v", knownTime.Calendar(), got.cal)
	}
	if got.age != 250 {
		t.Errorf("expected age 250, got %d", got.age)
	}
	if len(h.seen) != 1 || h.seen[0].Err != nil {
		t.Errorf("expected one good result reported, got %+v", h.seen)
	}
}

func TestJobDoesNotCommitRejectedFrame(t *testing.T) {
	h := newJobHarness()
	h.receive(flip(Encode(knownTime), bitDay))
	h.passTo(64100)

	if len(h.sync.calls) != 0 {
		t.Errorf("expected no sync, got %+v", h.sync.calls)
	}
	if len(h.seen) != 1 || !errors.Is(h.seen[0].Err, ErrParity) {
		t.Errorf("expected parity rejection reported, got %+v", h.seen)
	}
}

func TestJobSyncErrorStillReported(t *testing.T) {
	h := newJobHarness()
	h.sync.err = errors.New("boom")
	h.receive(Encode(knownTime))
	h.passTo(64100)

	if len(h.sync.calls) != 1 {
		t.Errorf("expected sync attempt, got %d", len(h.sync.calls))
	}
	if len(h.seen) != 1 {
		t.Errorf("expected result reported, got %d", len(h.seen))
	}
}

func TestJobNilReceiver(t *testing.T) {
	clock := &timebase.Manual{}
	dec := NewDecoder(DefaultConfig(timebase.Millis))
	job := NewJob(dec, nil, &fakeSyncer{}, clock.Now, timebase.Millis)
	sched := tasker.New(clock.Now, &tasker.Task{Name: "dcf", Job: job})
	sched.Setup()

	clock.T = 1100
	sched.Pass()
	dec.Edge(1200, true)
	if dec.State() != SyncSearch {
		t.Errorf("expected decoder powered without a receiver line, got %v", dec.State())
	}
}

func TestJobAlignsKeeper(t *testing.T) {
	clock := &timebase.Manual{}
	keeper := calendar.NewKeeper(timebase.Millis, calendar.Default)
	dec := NewDecoder(DefaultConfig(timebase.Millis))
	job := NewJob(dec, nil, keeper, clock.Now, timebase.Millis)
	keeperTask := &tasker.Task{Name: "timekeeper", Job: keeper}
	sched := tasker.New(clock.Now,
		keeperTask,
		&tasker.Task{Name: "dcf", Job: job},
	)
	sched.Setup()

	clock.T = 1100
	sched.Pass()
	dec.Edge(2000, true)
	feed(dec, Encode(knownTime).Edges(4000, timebase.Millis))

	clock.T = 64250
	sched.Pass()

	want := knownTime.Calendar()
	if got := keeper.Snapshot(); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if keeperTask.Timer != 750 {
		t.Errorf("expected next second in 750 ticks, got %d", keeperTask.Timer)
	}
}
