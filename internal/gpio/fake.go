package gpio

import "errors"

// FakeReader is a test double that returns scripted button levels.
type FakeReader struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Levels

	// index is the next sample to return
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...Levels) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Levels, error) {
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Levels{}, errors.New("no samples configured")
	}

	if f.index >= len(f.Samples) {
		return f.Samples[len(f.Samples)-1], nil
	}
	sample := f.Samples[f.index]
	f.index++
	return sample, nil
}

// Push appends samples to the script.
func (f *FakeReader) Push(samples ...Levels) {
	f.Samples = append(f.Samples, samples...)
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// FakePower records receiver power switching.
type FakePower struct {
	Calls    []bool
	SetError error
}

// SetPower records the request.
func (f *FakePower) SetPower(on bool) error {
	f.Calls = append(f.Calls, on)
	return f.SetError
}

// On reports the last requested state.
func (f *FakePower) On() bool {
	return len(f.Calls) > 0 && f.Calls[len(f.Calls)-1]
}
