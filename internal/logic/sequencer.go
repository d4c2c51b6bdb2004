package logic

// Sequencer plays a Sequence on a ToneOutput without blocking.
// Every step is timed by an absolute deadline, so playback stays correct when
// Advance is called late or at an irregular rate.
type Sequencer struct {
	out    ToneOutput
	seq    *Sequence
	idx    int
	loop   bool
	inGap  bool
	active bool
	step   timer
}

// NewSequencer creates an idle sequencer.
func NewSequencer(out ToneOutput) *Sequencer {
	return &Sequencer{out: out}
}

// Play replaces the active sequence and restarts from the first note.
func (s *Sequencer) Play(seq *Sequence, loop bool) {
	s.seq = seq
	s.idx = 0
	s.loop = loop
	s.inGap = false
	s.step.clear()
	s.active = seq.Len() > 0
	if !s.active {
		s.out.StopTone()
	}
}

// Stop silences the buzzer immediately.
func (s *Sequencer) Stop() {
	s.active = false
	s.seq = nil
	s.inGap = false
	s.step.clear()
	s.out.StopTone()
}

// Active reports whether a sequence is playing.
func (s *Sequencer) Active() bool {
	return s.active
}

// Sequence returns the current sequence, or nil.
func (s *Sequencer) Sequence() *Sequence {
	return s.seq
}

// Index returns the current note index.
func (s *Sequencer) Index() int {
	return s.idx
}

// Advance moves playback forward to now.
func (s *Sequencer) Advance(now uint32) {
	if !s.active || s.seq.Len() == 0 {
		return
	}
	if !s.step.set {
		s.startStep(now)
		return
	}
	if !s.step.reached(now) {
		return
	}

	n := s.seq.At(s.idx)
	if !s.inGap && n.GapMs > 0 {
		s.inGap = true
	} else {
		s.inGap = false
		s.idx++
		if s.idx >= s.seq.Len() {
			if !s.loop {
				s.active = false
				s.step.clear()
				s.out.StopTone()
				return
			}
			s.idx = 0
		}
	}
	s.startStep(now)
}

func (s *Sequencer) startStep(now uint32) {
	n := s.seq.At(s.idx)
	if s.inGap {
		s.out.StopTone()
		s.step.arm(now + uint32(n.GapMs))
		return
	}
	if n.FreqHz > 0 {
		s.out.PlayTone(n.FreqHz, uint32(n.DurationMs))
	} else {
		s.out.StopTone()
	}
	s.step.arm(now + uint32(n.DurationMs))
}
