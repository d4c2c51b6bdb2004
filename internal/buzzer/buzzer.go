// Package buzzer drives the launch panel's sound source.
// PWM sounds a passive piezo from a hardware PWM pin, MIDI plays the same
// tones on a synth for bench work, and Silent discards everything.
package buzzer

import (
	"log"
	"sync"
	"time"
)

// Tone is a sound source. A tone with a non-zero duration stops on its own;
// a later Play or Stop always wins over an earlier timed tone.
type Tone interface {
	Play(freqHz uint16, durationMs uint32) error
	Stop() error
	Close() error
}

// Silent is a Tone that makes no sound.
type Silent struct{}

func (Silent) Play(uint16, uint32) error { return nil }
func (Silent) Stop() error               { return nil }
func (Silent) Close() error              { return nil }

// device is the raw on/off control a timed tone wraps.
type device interface {
	on(freqHz uint16) error
	off() error
}

// timed serialises device access and cancels tones after their duration.
// Every play or stop bumps gen so a stale timer never silences a newer tone.
type timed struct {
	mu    sync.Mutex
	dev   device
	gen   uint64
	timer *time.Timer
}

func (d *timed) play(freqHz uint16, durationMs uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancel()
	if freqHz == 0 {
		return d.dev.off()
	}
	if err := d.dev.on(freqHz); err != nil {
		return err
	}
	if durationMs > 0 {
		gen := d.gen
		d.timer = time.AfterFunc(time.Duration(durationMs)*time.Millisecond, func() {
			d.expire(gen)
		})
	}
	return nil
}

func (d *timed) stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancel()
	return d.dev.off()
}

func (d *timed) cancel() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *timed) expire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen {
		return
	}
	d.timer = nil
	if err := d.dev.off(); err != nil {
		log.Printf("buzzer: auto-stop failed: %v", err)
	}
}
