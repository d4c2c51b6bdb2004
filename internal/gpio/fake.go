package gpio

import (
	"errors"

	"github.com/sweeney/launch-controller/internal/logic"
)

// FakeReader is a test double that returns scripted input samples.
type FakeReader struct {
	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeWriter records output writes.
type FakeWriter struct {
	// Levels holds the last value written per channel.
	Levels [logic.NumChannels]bool

	// Writes counts successful writes.
	Writes int

	// WriteError, if set, is returned for writes to the channels in FailOn
	// (or every channel when FailOn is empty).
	WriteError error
	FailOn     []logic.Channel

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates a FakeWriter with every output inactive.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Write records the level for ch.
func (f *FakeWriter) Write(ch logic.Channel, on bool) error {
	if f.WriteError != nil && f.fails(ch) {
		return f.WriteError
	}
	f.Levels[ch] = on
	f.Writes++
	return nil
}

func (f *FakeWriter) fails(ch logic.Channel) bool {
	if len(f.FailOn) == 0 {
		return true
	}
	for _, c := range f.FailOn {
		if c == ch {
			return true
		}
	}
	return false
}

// Close forces every output off and marks the writer closed.
func (f *FakeWriter) Close() error {
	f.Levels = [logic.NumChannels]bool{}
	f.Closed = true
	return nil
}
