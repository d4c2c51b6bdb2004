package buzzer

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
)

// DefaultMIDIVelocity is the note-on velocity used for every tone.
const DefaultMIDIVelocity = 100

// MIDI plays tones as notes on a MIDI output, one note at a time.
type MIDI struct {
	send     func(midi.Message) error
	closer   func() error
	channel  uint8
	velocity uint8

	key      uint8
	sounding bool

	t timed
}

func newMIDI(send func(midi.Message) error, closer func() error, channel uint8) *MIDI {
	m := &MIDI{
		send:     send,
		closer:   closer,
		channel:  channel & 0x0f,
		velocity: DefaultMIDIVelocity,
	}
	m.t.dev = m
	return m
}

// Key returns the nearest MIDI key for a frequency, clamped to 0..127.
func Key(freqHz uint16) uint8 {
	if freqHz == 0 {
		return 0
	}
	k := math.Round(69 + 12*math.Log2(float64(freqHz)/440))
	if k < 0 {
		return 0
	}
	if k > 127 {
		return 127
	}
	return uint8(k)
}

// Play sounds the note nearest freqHz. Zero frequency is silence.
func (m *MIDI) Play(freqHz uint16, durationMs uint32) error {
	if err := m.t.play(freqHz, durationMs); err != nil {
		return fmt.Errorf("midi play %dHz: %w", freqHz, err)
	}
	return nil
}

// Stop releases the sounding note.
func (m *MIDI) Stop() error {
	if err := m.t.stop(); err != nil {
		return fmt.Errorf("midi stop: %w", err)
	}
	return nil
}

// Close releases the sounding note and the output port.
func (m *MIDI) Close() error {
	err := m.Stop()
	if m.closer != nil {
		if cerr := m.closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (m *MIDI) on(freqHz uint16) error {
	if err := m.off(); err != nil {
		return err
	}
	key := Key(freqHz)
	if err := m.send(midi.NoteOn(m.channel, key, m.velocity)); err != nil {
		return err
	}
	m.key = key
	m.sounding = true
	return nil
}

func (m *MIDI) off() error {
	if !m.sounding {
		return nil
	}
	if err := m.send(midi.NoteOff(m.channel, m.key)); err != nil {
		return err
	}
	m.sounding = false
	return nil
}
