package display

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/dcfclock/internal/tasker"
	"github.com/sweeney/dcfclock/internal/timebase"
)

var writeErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dcfclock_display_write_errors_total",
	Help: "count of failed writes to the display hardware",
})

// Sink receives display updates. mask is never zero.
type Sink interface {
	Write(buf Buffer, mask Dirty) error
}

// Driver is the scheduler task that sends dirty registers to a Sink.
type Driver struct {
	disp     *Display
	sink     Sink
	interval timebase.Ticks
}

// NewDriver creates a driver that refreshes every 100 ms.
func NewDriver(disp *Display, sink Sink, b timebase.Base) *Driver {
	return &Driver{disp: disp, sink: sink, interval: b.Ticks(100)}
}

// Init arms the first refresh.
func (d *Driver) Init(t *tasker.Task) {
	t.Timer = d.interval
}

// Run sends pending changes. A failed write leaves them pending.
func (d *Driver) Run(t *tasker.Task, elapsed timebase.Ticks) {
	t.Timer += d.interval

	buf, mask := d.disp.Take()
	if mask == 0 {
		return
	}
	if err := d.sink.Write(buf, mask); err != nil {
		writeErrors.Inc()
		log.Printf("display: write: %v", err)
		d.disp.MarkDirty(mask)
	}
}
