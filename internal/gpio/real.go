//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the buttons from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	bias  gpiocdev.LineBias
}

// NewRealReader requests the three button lines as inputs. Active-low
// buttons get pull-ups, active-high ones pull-downs, so an open switch
// reads as released either way.
func NewRealReader(chipName string, pins Pins, activeLow bool) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	bias := buttonBias(activeLow)
	lines, err := chip.RequestLines([]int{pins.Mode, pins.Up, pins.Down}, gpiocdev.AsInput, bias)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pins %d,%d,%d: %w", pins.Mode, pins.Up, pins.Down, err)
	}

	return &RealReader{chip: chip, lines: lines, bias: bias}, nil
}

// buttonBias pulls an open switch to its released level.
func buttonBias(activeLow bool) gpiocdev.LineBias {
	if activeLow {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}

// Read returns the raw levels of Mode, Up and Down.
func (r *RealReader) Read() (Levels, error) {
	vals := make([]int, 3)
	if err := r.lines.Values(vals); err != nil {
		return Levels{}, fmt.Errorf("read button pins: %w", err)
	}
	return Levels{Mode: vals[0] != 0, Up: vals[1] != 0, Down: vals[2] != 0}, nil
}

// Close releases GPIO resources.
// The lines are left as biased inputs so the board idles in a known state.
func (r *RealReader) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput, r.bias); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// EdgeWatcher delivers both edges of an input line to a handler.
type EdgeWatcher struct {
	line *gpiocdev.Line
}

// WatchEdges requests offset as an input reporting both edges. Each edge
// is placed in ticks by clk from its kernel timestamp. With activeLow the
// level passed to h is inverted.
func WatchEdges(chipName string, offset int, activeLow bool, clk *EdgeClock, h EdgeHandler) (*EdgeWatcher, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			h(clk.Stamp(evt.Timestamp), evt.Type == gpiocdev.LineEventRisingEdge)
		}),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := gpiocdev.RequestLine(chipName, offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request edge pin %d: %w", offset, err)
	}
	return &EdgeWatcher{line: line}, nil
}

// Close stops event delivery and releases the line.
func (w *EdgeWatcher) Close() error {
	if err := w.line.Close(); err != nil {
		return fmt.Errorf("close edge pin: %w", err)
	}
	return nil
}

// PowerPin drives the receiver's active-low power-on input.
type PowerPin struct {
	line *gpiocdev.Line
}

// NewPowerPin requests offset as an output with the receiver off.
func NewPowerPin(chipName string, offset int) (*PowerPin, error) {
	line, err := gpiocdev.RequestLine(chipName, offset, gpiocdev.AsActiveLow, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request power pin %d: %w", offset, err)
	}
	return &PowerPin{line: line}, nil
}

// SetPower switches the receiver on or off.
func (p *PowerPin) SetPower(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := p.line.SetValue(v); err != nil {
		return fmt.Errorf("set power pin: %w", err)
	}
	return nil
}

// Close switches the receiver off and releases the line.
func (p *PowerPin) Close() error {
	var errs []error
	if err := p.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("set power pin: %w", err))
	}
	if err := p.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close power pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// MainsCounter counts rising edges of a mains-derived input line.
type MainsCounter struct {
	Counter
	line *gpiocdev.Line
}

// NewMainsCounter requests offset as an input and counts its rising edges.
func NewMainsCounter(chipName string, offset int) (*MainsCounter, error) {
	m := &MainsCounter{}
	line, err := gpiocdev.RequestLine(chipName, offset,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { m.Edge() }),
	)
	if err != nil {
		return nil, fmt.Errorf("request mains pin %d: %w", offset, err)
	}
	m.line = line
	return m, nil
}

// Close stops counting and releases the line.
func (m *MainsCounter) Close() error {
	if err := m.line.Close(); err != nil {
		return fmt.Errorf("close mains pin: %w", err)
	}
	return nil
}
