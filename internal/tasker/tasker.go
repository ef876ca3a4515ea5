// Package tasker is a round-robin, time-triggered cooperative scheduler.
//
// Every task carries a countdown timer. Each pass reads the tick source
// once, runs every task whose timer has run out, and then subtracts the
// elapsed ticks from every timer. A job re-arms itself from Run by adding
// its interval to Timer.
package tasker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/dcfclock/internal/timebase"
)

var overrunCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dcfclock_task_overruns_total",
	Help: "count of scheduler passes in which a task's timer underflowed and was clamped to zero",
}, []string{"task"})

// Job is the behaviour of a task.
type Job interface {
	// Init is called once from Setup. It normally sets the first timeout.
	Init(t *Task)

	// Run is called when the task's timer has expired. elapsed is the
	// number of ticks covered by the current pass.
	Run(t *Task, elapsed timebase.Ticks)
}

// Task is one entry of the task table.
type Task struct {
	Name  string
	Job   Job
	Timer timebase.Ticks

	overruns uint64
}

// Overruns returns how often this task's timer was clamped to zero.
func (t *Task) Overruns() uint64 {
	return t.overruns
}

// Scheduler owns the fixed task table.
type Scheduler struct {
	tasks []*Task
	now   timebase.Source
	then  timebase.Ticks
}

// New creates a scheduler for the given tasks, in dispatch order.
func New(now timebase.Source, tasks ...*Task) *Scheduler {
	return &Scheduler{tasks: tasks, now: now}
}

// Tasks returns the task table.
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// Setup calls every task's Init once and takes the reference reading of
// the tick source.
func (s *Scheduler) Setup() {
	for _, t := range s.tasks {
		t.Job.Init(t)
	}
	s.then = s.now()
}

// Pass performs one scheduler pass and returns the elapsed ticks it
// accounted for.
func (s *Scheduler) Pass() timebase.Ticks {
	now := s.now()
	elapsed := timebase.Since(now, s.then)
	s.then = now

	if elapsed == 0 {
		return 0
	}

	for _, t := range s.tasks {
		if t.Timer <= elapsed {
			t.Job.Run(t, elapsed)
		}

		if t.Timer < elapsed {
			// The task cannot keep up with its interval. It stays due
			// rather than carrying negative debt.
			t.Timer = 0
			t.overruns++
			overrunCounter.WithLabelValues(t.Name).Inc()
		} else {
			t.Timer -= elapsed
		}
	}
	return elapsed
}

// Every returns a Job that calls fn at a fixed interval.
func Every(interval timebase.Ticks, fn func(elapsed timebase.Ticks)) Job {
	return &periodic{interval: interval, fn: fn}
}

type periodic struct {
	interval timebase.Ticks
	fn       func(elapsed timebase.Ticks)
}

func (p *periodic) Init(t *Task) {
	t.Timer = p.interval
}

func (p *periodic) Run(t *Task, elapsed timebase.Ticks) {
	t.Timer += p.interval
	p.fn(elapsed)
}
