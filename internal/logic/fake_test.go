package logic

import (
	"strconv"
	"strings"
)

// fakeTone records buzzer calls.
type fakeTone struct {
	sounding bool
	freq     uint16
	plays    []uint16
	stops    int
}

func (f *fakeTone) PlayTone(freqHz uint16, durationMs uint32) {
	f.sounding = true
	f.freq = freqHz
	f.plays = append(f.plays, freqHz)
}

func (f *fakeTone) StopTone() {
	f.sounding = false
	f.freq = 0
	f.stops++
}

// fakeLCD is a 2x16 character grid.
type fakeLCD struct {
	rows     [2][16]byte
	col, row int
}

func newFakeLCD() *fakeLCD {
	l := &fakeLCD{}
	l.Clear()
	return l
}

func (l *fakeLCD) Clear() {
	for r := range l.rows {
		for c := range l.rows[r] {
			l.rows[r][c] = ' '
		}
	}
	l.col, l.row = 0, 0
}

func (l *fakeLCD) SetCursor(col, row int) {
	l.col, l.row = col, row
}

func (l *fakeLCD) Print(text string) {
	for i := 0; i < len(text) && l.col < 16; i++ {
		l.rows[l.row][l.col] = text[i]
		l.col++
	}
}

func (l *fakeLCD) PrintInt(n int) {
	l.Print(strconv.Itoa(n))
}

func (l *fakeLCD) Line(row int) string {
	return strings.TrimRight(string(l.rows[row][:]), " ")
}

// fakePanel implements Inputs and Outputs.
type fakePanel struct {
	fakeTone
	lcd *fakeLCD

	arm, reset, launch bool

	channels [NumChannels]bool
	writes   int
}

func newFakePanel() *fakePanel {
	return &fakePanel{lcd: newFakeLCD()}
}

func (p *fakePanel) ArmEngaged() bool { return p.arm }
func (p *fakePanel) ResetHeld() bool  { return p.reset }
func (p *fakePanel) LaunchHeld() bool { return p.launch }

func (p *fakePanel) SetChannel(ch Channel, on bool) {
	p.channels[ch] = on
	p.writes++
}

func (p *fakePanel) Display() Display { return p.lcd }

func (p *fakePanel) allOff() bool {
	for _, on := range p.channels {
		if on {
			return false
		}
	}
	return true
}
