// Package gpio provides launch panel line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "github.com/sweeney/launch-controller/internal/logic"

// Sample is one reading of the panel inputs, already in logical form
// (true = engaged/pressed/active).
type Sample struct {
	Arm    bool
	Reset  bool
	Launch bool
	Fault  bool // external fault line; always false when not wired
}

// Reader reads the panel inputs.
type Reader interface {
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the discrete outputs.
type Writer interface {
	Write(ch logic.Channel, on bool) error

	// Close forces every output inactive and releases GPIO resources.
	Close() error
}

// Pins holds BCM line numbers. A negative pin is not wired.
type Pins struct {
	Arm    int
	Reset  int
	Launch int
	Fault  int

	Ready      int
	Armed      int
	LaunchLamp int
	Relay      int
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinArm        = 17
	DefaultPinReset      = 27
	DefaultPinLaunch     = 22
	DefaultPinReady      = 5
	DefaultPinArmed      = 6
	DefaultPinLaunchLamp = 16
	DefaultPinRelay      = 26
)

// DefaultPins returns the stock wiring with no fault line.
func DefaultPins() Pins {
	return Pins{
		Arm:        DefaultPinArm,
		Reset:      DefaultPinReset,
		Launch:     DefaultPinLaunch,
		Fault:      -1,
		Ready:      DefaultPinReady,
		Armed:      DefaultPinArmed,
		LaunchLamp: DefaultPinLaunchLamp,
		Relay:      DefaultPinRelay,
	}
}

func (p Pins) output(ch logic.Channel) int {
	switch ch {
	case logic.ChannelReady:
		return p.Ready
	case logic.ChannelArmed:
		return p.Armed
	case logic.ChannelLaunchLamp:
		return p.LaunchLamp
	case logic.ChannelRelay:
		return p.Relay
	}
	return -1
}
