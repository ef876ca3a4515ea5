//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chipName string, pins Pins, activeLow bool) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Levels, error) {
	return Levels{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// EdgeWatcher is not available on non-Linux platforms.
type EdgeWatcher struct{}

// WatchEdges returns an error on non-Linux platforms.
func WatchEdges(chipName string, offset int, activeLow bool, clk *EdgeClock, h EdgeHandler) (*EdgeWatcher, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *EdgeWatcher) Close() error {
	return nil
}

// PowerPin is not available on non-Linux platforms.
type PowerPin struct{}

// NewPowerPin returns an error on non-Linux platforms.
func NewPowerPin(chipName string, offset int) (*PowerPin, error) {
	return nil, errUnsupported
}

// SetPower is not implemented on non-Linux platforms.
func (p *PowerPin) SetPower(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *PowerPin) Close() error {
	return nil
}

// MainsCounter is not available on non-Linux platforms.
type MainsCounter struct {
	Counter
}

// NewMainsCounter returns an error on non-Linux platforms.
func NewMainsCounter(chipName string, offset int) (*MainsCounter, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (m *MainsCounter) Close() error {
	return nil
}
