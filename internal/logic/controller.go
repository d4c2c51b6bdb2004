package logic

import "fmt"

// Options configures a Controller.
type Options struct {
	// Timing overrides DefaultTiming field by field; zero fields keep the
	// default.
	Timing Timing
	// Initial is the boot state: StateStartup or StateSplash.
	Initial State
	// Fault is the global fault predicate. Nil never faults.
	Fault FaultFunc
	// Banner is shown during Splash.
	Banner [2]string
}

// Controller is the launch state machine. It is not safe for concurrent use:
// Tick and Enter must be called from the polling goroutine only.
type Controller struct {
	in     Inputs
	out    Outputs
	lcd    Display
	timing Timing
	fault  FaultFunc
	banner [2]string
	buzzer *Sequencer

	state        State
	enteredAt    uint32
	deadline     timer
	launchHold   hold
	resetHold    hold
	refresh      timer
	row1         string
	systemLocked bool

	startupCheckIndex int
	lastCheckTime     uint32
	completionTime    uint32
	startupComplete   bool

	channels      [NumChannels]bool
	counts        Counts
	events        []Event
	bootAt        uint32
	lastHeartbeat uint32
}

// NewController creates a controller and enters the initial state at now.
func NewController(in Inputs, out Outputs, opts Options, now uint32) *Controller {
	timing := opts.Timing.withDefaults()
	banner := opts.Banner
	if banner == ([2]string{}) {
		banner = [2]string{"Rocket Launch", "Controller"}
	}
	initial := opts.Initial
	if initial != StateSplash {
		initial = StateStartup
	}

	c := &Controller{
		in:            in,
		out:           out,
		lcd:           out.Display(),
		timing:        timing,
		fault:         opts.Fault,
		banner:        banner,
		buzzer:        NewSequencer(out),
		systemLocked:  true,
		bootAt:        now,
		lastHeartbeat: now,
	}
	c.enter(initial, now, "boot")
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// SystemLocked reports whether operator inputs are ignored.
func (c *Controller) SystemLocked() bool {
	return c.systemLocked
}

// EnteredAt returns the time of the last transition.
func (c *Controller) EnteredAt() uint32 {
	return c.enteredAt
}

// Channel returns the last value written to ch.
func (c *Controller) Channel(ch Channel) bool {
	return c.channels[ch]
}

// Channels returns the last values written to every channel.
func (c *Controller) Channels() [NumChannels]bool {
	return c.channels
}

// Counts returns transition counters since boot.
func (c *Controller) Counts() Counts {
	return c.counts
}

// Sequencer exposes the buzzer sequencer.
func (c *Controller) Sequencer() *Sequencer {
	return c.buzzer
}

// Timing returns the active timings.
func (c *Controller) Timing() Timing {
	return c.timing
}

// Remaining returns the milliseconds left before the current timed step
// completes, or 0 when nothing is pending.
func (c *Controller) Remaining(now uint32) uint32 {
	switch c.state {
	case StateSplash, StateLaunching, StateCooldown, StateAbort:
		if !c.deadline.set || reached(now, c.deadline.at) {
			return 0
		}
		return c.deadline.at - now
	case StateLaunchCountdown:
		return remaining(c.timing.HoldToLaunch, now-c.enteredAt)
	case StateFault:
		if !c.resetHold.active {
			return 0
		}
		return remaining(c.timing.ResetHold, now-c.resetHold.since)
	}
	return 0
}

// Enter forces a transition to target.
func (c *Controller) Enter(target State, now uint32) {
	c.enter(target, now, "forced")
}

// Tick advances the buzzer and the state machine to now and returns the
// transitions made since the previous call.
func (c *Controller) Tick(now uint32) []Event {
	c.buzzer.Advance(now)

	if c.state != StateFault && c.faultActive() {
		c.enter(StateFault, now, "global fault")
		return c.drain()
	}

	switch c.state {
	case StateStartup:
		c.updateStartup(now)
	case StateSplash:
		c.updateSplash(now)
	case StateReady:
		c.updateReady(now)
	case StateArmed:
		c.updateArmed(now)
	case StateLaunchCountdown:
		c.updateCountdown(now)
	case StateLaunching:
		c.updateLaunching(now)
	case StateCooldown:
		c.updateCooldown(now)
	case StateAbort:
		c.updateAbort(now)
	case StateFault:
		c.updateFault(now)
	}
	return c.drain()
}

// CheckHeartbeat returns heartbeat data if intervalMs has elapsed since the
// last heartbeat (or boot). Returns nil if the interval has not elapsed or
// intervalMs is 0 (disabled).
func (c *Controller) CheckHeartbeat(now, intervalMs uint32) *HeartbeatData {
	if intervalMs == 0 {
		return nil
	}
	if now-c.lastHeartbeat < intervalMs {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		At:       now,
		UptimeMs: now - c.bootAt,
		State:    c.state,
		Counts:   c.counts,
	}
}

func (c *Controller) drain() []Event {
	events := c.events
	c.events = nil
	return events
}

func (c *Controller) faultActive() bool {
	return c.fault != nil && c.fault()
}

func (c *Controller) anyControlActive() bool {
	return c.in.ArmEngaged() || c.in.ResetHeld() || c.in.LaunchHeld()
}

// enter performs a complete transition. Every timer is cleared before the
// target's own timers are set, so nothing carries over between states.
func (c *Controller) enter(target State, now uint32, reason string) {
	from := c.state
	c.state = target
	c.enteredAt = now
	c.deadline.clear()
	c.launchHold.clear()
	c.resetHold.clear()
	c.refresh.clear()
	c.row1 = ""
	c.startupCheckIndex = 0
	c.lastCheckTime = 0
	c.completionTime = 0
	c.startupComplete = false

	switch target {
	case StateStartup:
		c.setOutputs(false, false, false, false)
		c.systemLocked = true
		c.showState("STARTUP", "Self-check...")
		c.buzzer.Play(SoundChirp, false)

	case StateSplash:
		c.setOutputs(false, false, false, false)
		c.systemLocked = true
		c.showState(c.banner[0], c.banner[1])
		c.buzzer.Play(SoundChirp, false)
		c.deadline.arm(now + c.timing.Splash)

	case StateReady:
		c.setOutputs(true, false, false, false)
		c.systemLocked = false
		c.showState("READY", "Disarmed")
		c.buzzer.Stop()

	case StateArmed:
		c.setOutputs(false, true, false, false)
		c.systemLocked = false
		c.showState("ARMED", "Hold LAUNCH")
		c.buzzer.Play(SoundArmed, true)

	case StateLaunchCountdown:
		c.setOutputs(false, true, false, false)
		c.systemLocked = false
		c.showState("COUNTDOWN", "Hold...")
		c.buzzer.Play(SoundCountdownSiren, true)

	case StateLaunching:
		c.setOutputs(false, false, true, true)
		c.systemLocked = false
		c.showState("LAUNCHING", "Relay ON")
		c.buzzer.Play(SoundLaunch, true)
		c.deadline.arm(now + c.timing.RelayOn)
		c.counts.Launches++

	case StateCooldown:
		c.setOutputs(false, false, false, false)
		c.systemLocked = false
		c.showState("COOLDOWN", "Post-fire")
		c.buzzer.Stop()
		c.deadline.arm(now + c.timing.Cooldown)

	case StateAbort:
		c.setOutputs(false, false, false, false)
		c.systemLocked = false
		c.showState("ABORT", "Inhibit...")
		c.buzzer.Play(SoundAbort, false)
		c.deadline.arm(now + c.timing.AbortInhibit)
		c.counts.Aborts++

	case StateFault:
		c.setOutputs(false, false, false, false)
		c.systemLocked = false
		c.showState("FAULT", "Disarm + Reset")
		c.buzzer.Play(SoundFault, true)
		c.counts.Faults++
	}

	c.events = append(c.events, Event{At: now, From: from, To: target, Reason: reason})
}

func (c *Controller) updateStartup(now uint32) {
	// A stuck or engaged control must not pass self-test.
	if c.anyControlActive() {
		c.enter(StateFault, now, "control active at startup")
		return
	}

	if c.startupComplete {
		if now-c.completionTime >= c.timing.StartupSettle {
			c.enter(StateReady, now, "self-check complete")
		}
		return
	}

	if c.startupCheckIndex > 0 && now-c.lastCheckTime < c.timing.StartupCheckInterval {
		return
	}
	if c.startupCheckIndex == 0 {
		c.lastCheckTime = now
	} else {
		c.lastCheckTime += c.timing.StartupCheckInterval
		if now-c.lastCheckTime >= c.timing.StartupCheckInterval {
			c.lastCheckTime = now
		}
	}

	if c.startupCheckIndex < c.timing.StartupChecks {
		c.showCheck(c.startupCheckIndex)
		c.buzzer.Play(SoundCheck, false)
		c.startupCheckIndex++
		return
	}

	c.showState("Self-check", "COMPLETE!")
	c.buzzer.Play(SoundComplete, false)
	c.completionTime = now
	c.startupComplete = true
}

func (c *Controller) updateSplash(now uint32) {
	if c.deadline.reached(now) {
		c.enter(StateStartup, now, "splash done")
	}
}

func (c *Controller) updateReady(now uint32) {
	if !c.systemLocked && c.in.ArmEngaged() {
		c.enter(StateArmed, now, "arm engaged")
	}
}

func (c *Controller) updateArmed(now uint32) {
	if c.systemLocked {
		return
	}
	if !c.in.ArmEngaged() {
		c.enter(StateReady, now, "arm released")
		return
	}
	if held := c.launchHold.update(c.in.LaunchHeld(), now); c.launchHold.active && held >= c.timing.LaunchConfirm {
		c.enter(StateLaunchCountdown, now, "launch held")
	}
}

func (c *Controller) updateCountdown(now uint32) {
	if c.systemLocked {
		return
	}
	if !c.in.ArmEngaged() {
		c.counts.InterlockBreaks++
		c.enter(StateFault, now, "arm interlock broken")
		return
	}
	if !c.in.LaunchHeld() {
		c.enter(StateAbort, now, "launch released early")
		return
	}

	held := now - c.enteredAt
	if held >= c.timing.HoldToLaunch {
		c.enter(StateLaunching, now, "hold complete")
		return
	}
	if c.refreshDue(now) {
		c.showHint(fmt.Sprintf("Hold %ds", ceilSeconds(remaining(c.timing.HoldToLaunch, held))))
	}
}

// updateLaunching ignores inputs: the relay window is latched.
func (c *Controller) updateLaunching(now uint32) {
	if c.deadline.reached(now) {
		c.setOutputs(false, false, false, false)
		c.enter(StateCooldown, now, "relay window elapsed")
	}
}

// updateCooldown always ends in Fault so firing requires explicit recovery.
func (c *Controller) updateCooldown(now uint32) {
	if c.deadline.reached(now) {
		c.enter(StateFault, now, "post-fire safing")
	}
}

func (c *Controller) updateAbort(now uint32) {
	if !c.deadline.reached(now) {
		return
	}
	if c.in.ArmEngaged() {
		c.enter(StateArmed, now, "abort inhibit elapsed")
	} else {
		c.enter(StateReady, now, "abort inhibit elapsed")
	}
}

func (c *Controller) updateFault(now uint32) {
	if c.systemLocked {
		return
	}
	if c.in.ArmEngaged() {
		c.resetHold.clear()
		c.showHint("Disarm & Reset")
		return
	}

	held := c.resetHold.update(c.in.ResetHeld(), now)
	if !c.resetHold.active {
		c.showHint("Disarm + Reset")
		return
	}
	if held >= c.timing.ResetHold && !c.faultActive() {
		c.enter(StateReady, now, "fault cleared")
		return
	}
	if c.refreshDue(now) {
		c.showHint(fmt.Sprintf("Reset %ds", ceilSeconds(remaining(c.timing.ResetHold, held))))
	}
}

func (c *Controller) setOutputs(ready, armed, lamp, relay bool) {
	c.setChannel(ChannelReady, ready)
	c.setChannel(ChannelArmed, armed)
	c.setChannel(ChannelLaunchLamp, lamp)
	c.setChannel(ChannelRelay, relay)
}

func (c *Controller) setChannel(ch Channel, on bool) {
	c.out.SetChannel(ch, on)
	c.channels[ch] = on
}

// refreshDue throttles display updates to one per DisplayRefresh.
func (c *Controller) refreshDue(now uint32) bool {
	if c.refresh.set && !c.refresh.reached(now) {
		return false
	}
	c.refresh.arm(now + c.timing.DisplayRefresh)
	return true
}

func (c *Controller) showState(line0, line1 string) {
	c.lcd.Clear()
	c.lcd.SetCursor(0, 0)
	c.lcd.Print(line0)
	c.lcd.SetCursor(0, 1)
	c.lcd.Print(line1)
	c.row1 = line1
}

// showHint rewrites the second row only when its text changes.
func (c *Controller) showHint(text string) {
	if text == c.row1 {
		return
	}
	c.row1 = text
	c.lcd.SetCursor(0, 1)
	c.lcd.Print(fmt.Sprintf("%-16s", text))
}

func (c *Controller) showCheck(i int) {
	label := "Check"
	if i < len(StartupChecks) {
		label = StartupChecks[i]
	}
	c.lcd.Clear()
	c.lcd.SetCursor(0, 0)
	c.lcd.Print("Check ")
	c.lcd.PrintInt(i + 1)
	c.lcd.Print("/")
	c.lcd.PrintInt(c.timing.StartupChecks)
	c.lcd.SetCursor(0, 1)
	c.lcd.Print(label)
	c.row1 = label
}

func remaining(total, elapsed uint32) uint32 {
	if elapsed >= total {
		return 0
	}
	return total - elapsed
}

func ceilSeconds(ms uint32) int {
	return int((ms + 999) / 1000)
}
