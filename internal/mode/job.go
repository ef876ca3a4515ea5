package mode

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/dcfclock/internal/gpio"
	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
)

var (
	modeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dcfclock_mode_changes_total",
		Help: "count of display state changes, by the state entered",
	}, []string{"state", "mode"})

	readErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dcfclock_button_read_errors_total",
		Help: "count of button scans skipped because the lines could not be read",
	})
)

// Job is the scheduler task that scans the buttons.
type Job struct {
	ctrl     *Controller
	reader   gpio.Reader
	interval timebase.Ticks
	failing  bool

	// OnChange, if set, is called for every state change.
	OnChange func(Change)
}

// NewJob creates the scan task.
func NewJob(ctrl *Controller, reader gpio.Reader, b timebase.Base) *Job {
	return &Job{
		ctrl:     ctrl,
		reader:   reader,
		interval: b.Ticks(uint32(ScanInterval.Milliseconds())),
	}
}

// Init arms the first scan.
func (j *Job) Init(t *tasker.Task) {
	t.Timer = j.interval
}

// Run reads the buttons and feeds the controller. A failed read skips
// the scan.
func (j *Job) Run(t *tasker.Task, elapsed timebase.Ticks) {
	t.Timer += j.interval

	levels, err := j.reader.Read()
	if err != nil {
		readErrors.Inc()
		if !j.failing {
			log.Printf("mode: button read error: %v", err)
			j.failing = true
		}
		return
	}
	if j.failing {
		log.Printf("mode: button reads recovered")
		j.failing = false
	}

	for _, ch := range j.ctrl.Scan(levels) {
		log.Printf("mode: %v", ch)
		if j.OnChange != nil {
			j.OnChange(ch)
		}
	}
}
