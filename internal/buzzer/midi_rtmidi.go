//go:build cgo

package buzzer

import (
	"fmt"
	"log"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// NewMIDI opens the first rtmidi output whose name contains port
// (case-insensitive). An empty port picks the first output that is not a
// "Midi Through" loopback.
func NewMIDI(port string, channel uint8) (*MIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi outputs: %w", err)
	}
	out := pickOut(outs, port)
	if out == nil {
		drv.Close()
		return nil, fmt.Errorf("midi output %q not found", port)
	}
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		out.Close()
		drv.Close()
		return nil, fmt.Errorf("send to %q: %w", out.String(), err)
	}
	log.Printf("buzzer: midi output %q channel %d", out.String(), channel)

	closer := func() error {
		err := out.Close()
		drv.Close()
		return err
	}
	return newMIDI(send, closer, channel), nil
}

func pickOut(outs []drivers.Out, port string) drivers.Out {
	for _, o := range outs {
		name := strings.ToLower(o.String())
		if port == "" {
			if !strings.Contains(name, "through") {
				return o
			}
			continue
		}
		if strings.Contains(name, strings.ToLower(port)) {
			return o
		}
	}
	return nil
}
