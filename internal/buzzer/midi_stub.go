//go:build !cgo

package buzzer

import "errors"

// NewMIDI returns an error when built without cgo (rtmidi is a C library).
func NewMIDI(port string, channel uint8) (*MIDI, error) {
	return nil, errors.New("buzzer: midi output requires a cgo build")
}
