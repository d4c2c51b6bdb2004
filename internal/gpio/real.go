//go:build linux

package gpio

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/launch-controller/internal/logic"
)

// Chip is the GPIO character device used for every line.
const Chip = "gpiochip0"

// RealReader reads the panel switches from actual hardware.
// Switches close to ground, so lines are requested pull-up and active-low:
// a pressed button reads as logical 1.
type RealReader struct {
	chip   *gpiocdev.Chip
	arm    *gpiocdev.Line
	reset  *gpiocdev.Line
	launch *gpiocdev.Line
	fault  *gpiocdev.Line
}

// NewRealReader requests the input lines. A non-zero debounce asks the kernel
// to filter contact bounce; if the kernel refuses, the line is requested
// without it and software debouncing has to cover it.
func NewRealReader(pins Pins, debounce time.Duration) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}
	lines := []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
	}{
		{"ARM", pins.Arm, &r.arm},
		{"RESET", pins.Reset, &r.reset},
		{"LAUNCH", pins.Launch, &r.launch},
		{"FAULT", pins.Fault, &r.fault},
	}
	for _, l := range lines {
		if l.pin < 0 {
			continue
		}
		line, err := requestInput(chip, l.pin, debounce)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l.name, l.pin, err)
		}
		*l.dst = line
	}
	return r, nil
}

func requestInput(chip *gpiocdev.Chip, pin int, debounce time.Duration) (*gpiocdev.Line, error) {
	if debounce > 0 {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow,
			gpiocdev.WithDebounce(debounce))
		if err == nil {
			return line, nil
		}
		log.Printf("gpio: kernel debounce unavailable on pin %d: %v", pin, err)
	}
	return chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
}

// Read returns the logical state of every wired input.
func (r *RealReader) Read() (Sample, error) {
	var s Sample
	var err error
	if s.Arm, err = readLine(r.arm); err != nil {
		return Sample{}, fmt.Errorf("read ARM pin: %w", err)
	}
	if s.Reset, err = readLine(r.reset); err != nil {
		return Sample{}, fmt.Errorf("read RESET pin: %w", err)
	}
	if s.Launch, err = readLine(r.launch); err != nil {
		return Sample{}, fmt.Errorf("read LAUNCH pin: %w", err)
	}
	if s.Fault, err = readLine(r.fault); err != nil {
		return Sample{}, fmt.Errorf("read FAULT pin: %w", err)
	}
	return s, nil
}

func readLine(l *gpiocdev.Line) (bool, error) {
	if l == nil {
		return false, nil
	}
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error
	for _, l := range []*gpiocdev.Line{r.arm, r.reset, r.launch, r.fault} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWriter drives the indicator and relay lines.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines [logic.NumChannels]*gpiocdev.Line
}

// NewRealWriter requests every output line inactive. relayActiveLow matches
// relay modules that energise on a low input.
func NewRealWriter(pins Pins, relayActiveLow bool) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{chip: chip}
	for ch := logic.Channel(0); ch < logic.NumChannels; ch++ {
		pin := pins.output(ch)
		if pin < 0 {
			continue
		}
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
		if ch == logic.ChannelRelay && relayActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, err := chip.RequestLine(pin, opts...)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", ch, pin, err)
		}
		w.lines[ch] = line
	}
	return w, nil
}

// Write sets the logical level of ch.
func (w *RealWriter) Write(ch logic.Channel, on bool) error {
	l := w.lines[ch]
	if l == nil {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("write %s: %w", ch, err)
	}
	return nil
}

// Close drives every output inactive, relay first, then releases the lines.
func (w *RealWriter) Close() error {
	var errs []error
	order := []logic.Channel{logic.ChannelRelay, logic.ChannelLaunchLamp, logic.ChannelArmed, logic.ChannelReady}
	for _, ch := range order {
		l := w.lines[ch]
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", ch, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ch, err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
