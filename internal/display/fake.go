package display

// Write is one update received by a FakeSink.
type Write struct {
	Buf  Buffer
	Mask Dirty
}

// FakeSink records writes for tests.
type FakeSink struct {
	Writes []Write

	// WriteError, if set, is returned by Write and nothing is recorded.
	WriteError error
}

// Write records the update.
func (f *FakeSink) Write(buf Buffer, mask Dirty) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Write{Buf: buf, Mask: mask})
	return nil
}

// Last returns the most recent write.
func (f *FakeSink) Last() (Write, bool) {
	if len(f.Writes) == 0 {
		return Write{}, false
	}
	return f.Writes[len(f.Writes)-1], true
}

// Discard is a Sink that accepts and drops every write.
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(Buffer, Dirty) error { return nil }
