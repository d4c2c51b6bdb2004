package buzzer

import "sync"

// Note is one recorded Play call.
type Note struct {
	FreqHz     uint16
	DurationMs uint32
}

// FakeTone is a test double that records tones instead of sounding them.
type FakeTone struct {
	mu sync.Mutex

	// Notes records every Play call in order.
	Notes []Note

	// Stops counts Stop calls.
	Stops int

	// Sounding is true between a Play with a non-zero frequency and the next Stop.
	Sounding bool

	// PlayError, if set, is returned by Play.
	PlayError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeTone creates a silent FakeTone.
func NewFakeTone() *FakeTone {
	return &FakeTone{}
}

// Play records the note.
func (f *FakeTone) Play(freqHz uint16, durationMs uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PlayError != nil {
		return f.PlayError
	}
	f.Notes = append(f.Notes, Note{FreqHz: freqHz, DurationMs: durationMs})
	f.Sounding = freqHz > 0
	return nil
}

// Stop records a stop.
func (f *FakeTone) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Stops++
	f.Sounding = false
	return nil
}

// Close silences and marks the tone closed.
func (f *FakeTone) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sounding = false
	f.Closed = true
	return nil
}

// Last returns the most recent note, or a zero Note.
func (f *FakeTone) Last() Note {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Notes) == 0 {
		return Note{}
	}
	return f.Notes[len(f.Notes)-1]
}

// IsSounding reports whether a tone is playing.
func (f *FakeTone) IsSounding() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Sounding
}
