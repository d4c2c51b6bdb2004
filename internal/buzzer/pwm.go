package buzzer

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// DefaultPWMPin is the Pi header pin wired to the piezo (hardware PWM0).
const DefaultPWMPin = "GPIO18"

// pwmPin is the part of gpio.PinIO the buzzer needs.
type pwmPin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// PWM drives a passive piezo with a 50% duty square wave.
type PWM struct {
	pin pwmPin
	t   timed
}

// NewPWM initialises periph.io and claims the named pin, driving it low.
func NewPWM(pinName string) (*PWM, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("buzzer pin %q not found", pinName)
	}
	return newPWM(pin)
}

func newPWM(pin pwmPin) (*PWM, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("buzzer pin low: %w", err)
	}
	p := &PWM{pin: pin}
	p.t.dev = p
	return p, nil
}

// Play starts a square wave at freqHz. Zero frequency is silence.
func (p *PWM) Play(freqHz uint16, durationMs uint32) error {
	if err := p.t.play(freqHz, durationMs); err != nil {
		return fmt.Errorf("pwm play %dHz: %w", freqHz, err)
	}
	return nil
}

// Stop silences the piezo.
func (p *PWM) Stop() error {
	if err := p.t.stop(); err != nil {
		return fmt.Errorf("pwm stop: %w", err)
	}
	return nil
}

// Close silences the piezo. The pin stays driven low.
func (p *PWM) Close() error {
	return p.Stop()
}

func (p *PWM) on(freqHz uint16) error {
	return p.pin.PWM(gpio.DutyHalf, physic.Frequency(freqHz)*physic.Hertz)
}

func (p *PWM) off() error {
	return p.pin.Out(gpio.Low)
}
