// Package panel connects the launch controller to its hardware.
// A Panel polls and debounces the switches, drives the lamps and relay,
// forwards tones to the buzzer and text to the display, and reports
// hardware trouble as a global fault.
package panel

import (
	"fmt"
	"log"

	"github.com/sweeney/launch-controller/internal/buzzer"
	"github.com/sweeney/launch-controller/internal/gpio"
	"github.com/sweeney/launch-controller/internal/logic"
)

// DefaultReadErrorLimit is the number of consecutive failed polls that
// raise a fault.
const DefaultReadErrorLimit = 5

// Config tunes input handling.
type Config struct {
	// DebounceMs is the software debounce period per input.
	DebounceMs uint32

	// ReadErrorLimit is the number of consecutive failed reads that count
	// as a fault. Zero uses DefaultReadErrorLimit.
	ReadErrorLimit int
}

// Panel implements logic.Inputs and logic.Outputs on top of the hardware
// drivers. It is not safe for concurrent use; the control loop owns it.
type Panel struct {
	reader gpio.Reader
	writer gpio.Writer
	tone   buzzer.Tone
	lcd    logic.Display

	arm    *gpio.Debouncer
	reset  *gpio.Debouncer
	launch *gpio.Debouncer
	fault  *gpio.Debouncer

	readErrors     int
	readErrorLimit int

	levels      [logic.NumChannels]bool
	relayFailed bool
}

// New creates a Panel. tone and lcd may be nil.
func New(r gpio.Reader, w gpio.Writer, tone buzzer.Tone, lcd logic.Display, cfg Config) *Panel {
	if tone == nil {
		tone = buzzer.Silent{}
	}
	if lcd == nil {
		lcd = nopDisplay{}
	}
	limit := cfg.ReadErrorLimit
	if limit <= 0 {
		limit = DefaultReadErrorLimit
	}
	return &Panel{
		reader:         r,
		writer:         w,
		tone:           tone,
		lcd:            lcd,
		arm:            gpio.NewDebouncer(cfg.DebounceMs),
		reset:          gpio.NewDebouncer(cfg.DebounceMs),
		launch:         gpio.NewDebouncer(cfg.DebounceMs),
		fault:          gpio.NewDebouncer(cfg.DebounceMs),
		readErrorLimit: limit,
	}
}

// Update polls the inputs once and retries a failed relay write.
// Read errors are returned for logging. The controls read as released from
// the first failed poll; the streak becomes a fault after ReadErrorLimit.
func (p *Panel) Update(now uint32) error {
	if p.relayFailed {
		p.SetChannel(logic.ChannelRelay, p.levels[logic.ChannelRelay])
	}

	s, err := p.reader.Read()
	if err != nil {
		p.readErrors++
		if p.readErrors == p.readErrorLimit {
			log.Printf("panel: %d consecutive read errors, raising fault", p.readErrors)
		}
		return fmt.Errorf("read inputs: %w", err)
	}
	if p.readErrors >= p.readErrorLimit {
		log.Printf("panel: inputs readable again after %d errors", p.readErrors)
	}
	p.readErrors = 0

	p.observe("ARM", p.arm, s.Arm, now)
	p.observe("RESET", p.reset, s.Reset, now)
	p.observe("LAUNCH", p.launch, s.Launch, now)
	p.observe("FAULT", p.fault, s.Fault, now)
	return nil
}

func (p *Panel) observe(name string, d *gpio.Debouncer, level bool, now uint32) {
	if d.Update(level, now) {
		log.Printf("input: %s %s", name, onOff(d.Stable()))
	}
}

// ArmEngaged implements logic.Inputs. Any unread poll reports released, so a
// countdown breaks its interlock instead of firing on stale levels.
func (p *Panel) ArmEngaged() bool { return p.readOK() && p.arm.Stable() }

// ResetHeld implements logic.Inputs.
func (p *Panel) ResetHeld() bool { return p.readOK() && p.reset.Stable() }

// LaunchHeld implements logic.Inputs.
func (p *Panel) LaunchHeld() bool { return p.readOK() && p.launch.Stable() }

func (p *Panel) readOK() bool { return p.readErrors == 0 }

// Inputs returns the debounced input levels.
func (p *Panel) Inputs() gpio.Sample {
	return gpio.Sample{
		Arm:    p.arm.Stable(),
		Reset:  p.reset.Stable(),
		Launch: p.launch.Stable(),
		Fault:  p.fault.Stable(),
	}
}

// Fault is the controller's global fault predicate.
func (p *Panel) Fault() bool {
	return p.FaultReason() != ""
}

// FaultReason describes the active hardware fault, or "" when healthy.
func (p *Panel) FaultReason() string {
	switch {
	case p.fault.Stable():
		return "fault line active"
	case p.readErrors >= p.readErrorLimit:
		return "input read failing"
	case p.relayFailed:
		return "relay write failed"
	}
	return ""
}

// SetChannel implements logic.Outputs. A failed relay write raises a fault
// until a later write succeeds.
func (p *Panel) SetChannel(ch logic.Channel, on bool) {
	p.levels[ch] = on
	err := p.writer.Write(ch, on)
	if ch != logic.ChannelRelay {
		if err != nil {
			log.Printf("panel: %v", err)
		}
		return
	}
	if err != nil {
		if !p.relayFailed {
			log.Printf("panel: relay write failed, raising fault: %v", err)
		}
		p.relayFailed = true
		return
	}
	if p.relayFailed {
		log.Printf("panel: relay write recovered")
		p.relayFailed = false
	}
}

// PlayTone implements logic.ToneOutput.
func (p *Panel) PlayTone(freqHz uint16, durationMs uint32) {
	if err := p.tone.Play(freqHz, durationMs); err != nil {
		log.Printf("panel: %v", err)
	}
}

// StopTone implements logic.ToneOutput.
func (p *Panel) StopTone() {
	if err := p.tone.Stop(); err != nil {
		log.Printf("panel: %v", err)
	}
}

// Display implements logic.Outputs.
func (p *Panel) Display() logic.Display {
	return p.lcd
}

// Safe drives the relay off first, then every other output, and silences
// the buzzer. Used on shutdown regardless of controller state.
func (p *Panel) Safe() error {
	var errs []error
	order := []logic.Channel{logic.ChannelRelay, logic.ChannelLaunchLamp, logic.ChannelArmed, logic.ChannelReady}
	for _, ch := range order {
		p.levels[ch] = false
		if err := p.writer.Write(ch, false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.tone.Stop(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("safe outputs: %v", errs)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

type nopDisplay struct{}

func (nopDisplay) Clear()             {}
func (nopDisplay) SetCursor(int, int) {}
func (nopDisplay) Print(string)       {}
func (nopDisplay) PrintInt(int)       {}
