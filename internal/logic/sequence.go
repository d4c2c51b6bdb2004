package logic

// BuzzNote is one step of a tone sequence. FreqHz 0 is a rest.
type BuzzNote struct {
	FreqHz     uint16
	DurationMs uint16
	GapMs      uint16
}

// Sequence is an immutable, named list of notes.
type Sequence struct {
	name  string
	notes []BuzzNote
}

// NewSequence copies notes into a new Sequence.
func NewSequence(name string, notes ...BuzzNote) *Sequence {
	cp := make([]BuzzNote, len(notes))
	copy(cp, notes)
	return &Sequence{name: name, notes: cp}
}

// Name returns the sequence name.
func (s *Sequence) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Len returns the number of notes.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.notes)
}

// At returns note i.
func (s *Sequence) At(i int) BuzzNote {
	return s.notes[i]
}

// Notes returns a copy of the notes.
func (s *Sequence) Notes() []BuzzNote {
	if s == nil {
		return nil
	}
	cp := make([]BuzzNote, len(s.notes))
	copy(cp, s.notes)
	return cp
}

// Stock sounds.
var (
	SoundChirp    = NewSequence("chirp", BuzzNote{2000, 80, 40}, BuzzNote{2500, 80, 0})
	SoundCheck    = NewSequence("check", BuzzNote{1500, 100, 0})
	SoundComplete = NewSequence("complete",
		BuzzNote{1500, 100, 50}, BuzzNote{2000, 100, 50}, BuzzNote{2500, 200, 0})
	SoundArmed          = NewSequence("armed", BuzzNote{1200, 180, 120}, BuzzNote{1600, 180, 700})
	// About one second per frame.
	SoundCountdownSiren = NewSequence("countdown_siren", BuzzNote{1400, 120, 40}, BuzzNote{2600, 120, 720})
	SoundLaunch         = NewSequence("launch", BuzzNote{1800, 500, 0})
	SoundAbort          = NewSequence("abort", BuzzNote{900, 120, 60}, BuzzNote{700, 120, 60})
	SoundFault          = NewSequence("fault", BuzzNote{800, 200, 50}, BuzzNote{600, 200, 150})
)
