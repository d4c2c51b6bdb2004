// Package logic contains the launch state machine and its tone sequencer.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected as a wrapping uint32 millisecond counter.
package logic

// State is the controller's current mode.
type State int

const (
	StateStartup State = iota
	StateSplash
	StateReady
	StateArmed
	StateLaunchCountdown
	StateLaunching
	StateCooldown
	StateAbort
	StateFault
)

var stateNames = [...]string{
	StateStartup:         "STARTUP",
	StateSplash:          "SPLASH",
	StateReady:           "READY",
	StateArmed:           "ARMED",
	StateLaunchCountdown: "LAUNCH_COUNTDOWN",
	StateLaunching:       "LAUNCHING",
	StateCooldown:        "COOLDOWN",
	StateAbort:           "ABORT",
	StateFault:           "FAULT",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Channel identifies a discrete output.
type Channel int

const (
	ChannelReady Channel = iota
	ChannelArmed
	ChannelLaunchLamp
	ChannelRelay
)

// NumChannels is the number of discrete outputs.
const NumChannels = 4

func (c Channel) String() string {
	switch c {
	case ChannelReady:
		return "ready"
	case ChannelArmed:
		return "armed"
	case ChannelLaunchLamp:
		return "launch_lamp"
	case ChannelRelay:
		return "relay"
	}
	return "unknown"
}

// Inputs are the debounced operator controls.
type Inputs interface {
	ArmEngaged() bool
	ResetHeld() bool
	LaunchHeld() bool
}

// ToneOutput drives the buzzer.
type ToneOutput interface {
	// PlayTone starts a tone. A durationMs of 0 plays until StopTone.
	PlayTone(freqHz uint16, durationMs uint32)
	StopTone()
}

// Display is a 2x16 character text sink. Its content is advisory only.
type Display interface {
	Clear()
	SetCursor(col, row int)
	Print(text string)
	PrintInt(n int)
}

// Outputs are the actuators and indicators the controller drives.
type Outputs interface {
	ToneOutput
	SetChannel(ch Channel, on bool)
	Display() Display
}

// FaultFunc reports whether a global fault condition is active.
type FaultFunc func() bool

// Event records a state transition.
type Event struct {
	At     uint32 // controller clock, ms
	From   State
	To     State
	Reason string
}

// Counts tracks notable transitions since boot.
type Counts struct {
	Launches        int
	Aborts          int
	Faults          int
	InterlockBreaks int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	At       uint32
	UptimeMs uint32
	State    State
	Counts   Counts
}

// Timing holds every duration the controller uses, in milliseconds.
type Timing struct {
	HoldToLaunch         uint32
	RelayOn              uint32
	Cooldown             uint32
	AbortInhibit         uint32
	ResetHold            uint32
	StartupCheckInterval uint32
	StartupChecks        int
	StartupSettle        uint32
	Splash               uint32
	LaunchConfirm        uint32
	DisplayRefresh       uint32
}

// DefaultTiming returns the stock timings.
func DefaultTiming() Timing {
	return Timing{
		HoldToLaunch:         5000,
		RelayOn:              5000,
		Cooldown:             5000,
		AbortInhibit:         1500,
		ResetHold:            2500,
		StartupCheckInterval: 250,
		StartupChecks:        len(StartupChecks),
		StartupSettle:        1000,
		Splash:               5000,
		LaunchConfirm:        250,
		DisplayRefresh:       250,
	}
}

// withDefaults fills every zero field from DefaultTiming.
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	fill := func(v *uint32, def uint32) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.HoldToLaunch, d.HoldToLaunch)
	fill(&t.RelayOn, d.RelayOn)
	fill(&t.Cooldown, d.Cooldown)
	fill(&t.AbortInhibit, d.AbortInhibit)
	fill(&t.ResetHold, d.ResetHold)
	fill(&t.StartupCheckInterval, d.StartupCheckInterval)
	fill(&t.StartupSettle, d.StartupSettle)
	fill(&t.Splash, d.Splash)
	fill(&t.LaunchConfirm, d.LaunchConfirm)
	fill(&t.DisplayRefresh, d.DisplayRefresh)
	if t.StartupChecks <= 0 {
		t.StartupChecks = d.StartupChecks
	}
	return t
}

// StartupChecks are the self-check items shown during Startup.
var StartupChecks = [...]string{
	"Ignition circuit", "Relay contacts", "Power supply", "Button debounce",
	"LCD display", "Buzzer tones", "ARM switch", "RESET button",
	"LAUNCH button", "Status LEDs", "Relay driver", "Safety locks",
	"Countdown timer", "Abort circuits", "Fault detection", "Cooldown timer",
	"ARM interlock", "Reset hold", "Global fault", "Final check",
}

// reached reports whether now is at or past deadline on a wrapping clock.
func reached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}

// timer is an optional absolute timestamp.
type timer struct {
	at  uint32
	set bool
}

func (t *timer) arm(at uint32) {
	t.at = at
	t.set = true
}

func (t *timer) clear() {
	*t = timer{}
}

func (t timer) reached(now uint32) bool {
	return t.set && reached(now, t.at)
}

// hold tracks how long a control has been held continuously.
type hold struct {
	since  uint32
	active bool
}

// update records the current level and returns the continuous hold time.
// Releasing the control zeroes the hold; there is no partial credit.
func (h *hold) update(pressed bool, now uint32) uint32 {
	if !pressed {
		*h = hold{}
		return 0
	}
	if !h.active {
		h.since = now
		h.active = true
	}
	return now - h.since
}

func (h *hold) clear() {
	*h = hold{}
}
