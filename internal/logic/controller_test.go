package logic

import (
	"math"
	"testing"
)

// tickRange ticks every step ms from from to to inclusive. Works across the
// counter wrap.
func tickRange(c *Controller, from, to, step uint32) []Event {
	var events []Event
	for d := uint32(0); d <= to-from; d += step {
		events = append(events, c.Tick(from+d)...)
	}
	return events
}

func lastEvent(t *testing.T, events []Event) Event {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("expected at least one event")
	}
	return events[len(events)-1]
}

func expectState(t *testing.T, c *Controller, want State, when string) {
	t.Helper()
	if c.State() != want {
		t.Fatalf("%s: expected %s, got %s", when, want, c.State())
	}
}

// bootToReady runs the nominal self-check from base and returns a controller
// that entered Ready at base+6000.
func bootToReady(t *testing.T, base uint32, opts Options) (*Controller, *fakePanel) {
	t.Helper()
	p := newFakePanel()
	c := NewController(p, p, opts, base)
	tickRange(c, base, base+5750, 250)
	expectState(t, c, StateStartup, "before settle")
	if !c.SystemLocked() {
		t.Fatal("system should stay locked during Startup")
	}
	c.Tick(base + 6000)
	expectState(t, c, StateReady, "t=6000")
	return c, p
}

// toCountdown arms at 6000, holds launch from 6000 and returns a controller
// that entered LaunchCountdown at 6250.
func toCountdown(t *testing.T, base uint32) (*Controller, *fakePanel) {
	t.Helper()
	c, p := bootToReady(t, base, Options{})
	p.arm = true
	c.Tick(base + 6000)
	expectState(t, c, StateArmed, "arm engaged")
	p.launch = true
	tickRange(c, base+6000, base+6200, 50)
	expectState(t, c, StateArmed, "launch held 200ms")
	c.Tick(base + 6250)
	expectState(t, c, StateLaunchCountdown, "launch held 250ms")
	return c, p
}

func TestNewControllerStartsInStartup(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{}, 0)

	expectState(t, c, StateStartup, "boot")
	if !c.SystemLocked() {
		t.Error("expected system locked at boot")
	}
	if !p.allOff() {
		t.Errorf("expected all outputs off at boot, got %v", p.channels)
	}
	if p.writes != NumChannels {
		t.Errorf("expected every channel initialised, got %d writes", p.writes)
	}
	if c.Sequencer().Sequence() != SoundChirp {
		t.Errorf("expected chirp at boot, got %q", c.Sequencer().Sequence().Name())
	}
	if got := p.lcd.Line(0); got != "STARTUP" {
		t.Errorf("LCD line 0: got %q", got)
	}
	if c.Timing() != DefaultTiming() {
		t.Error("expected default timing")
	}
}

func TestStartupFaultsWhenControlActive(t *testing.T) {
	cases := []struct {
		name               string
		arm, reset, launch bool
	}{
		{"arm", true, false, false},
		{"reset", false, true, false},
		{"launch", false, false, true},
		{"all", true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakePanel()
			p.arm, p.reset, p.launch = tc.arm, tc.reset, tc.launch
			c := NewController(p, p, Options{}, 0)

			e := lastEvent(t, c.Tick(0))
			expectState(t, c, StateFault, "t=0")
			if e.Reason != "control active at startup" {
				t.Errorf("reason: got %q", e.Reason)
			}
			if e.From != StateStartup || e.To != StateFault || e.At != 0 {
				t.Errorf("unexpected event %+v", e)
			}
			if !p.allOff() {
				t.Error("expected all outputs off in Fault")
			}
		})
	}
}

func TestStartupNominalReachesReadyAt6000(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{}, 0)

	tickRange(c, 0, 4750, 250)
	if got := p.lcd.Line(0); got != "Check 20/20" {
		t.Errorf("t=4750 LCD line 0: got %q", got)
	}
	if got := p.lcd.Line(1); got != "Final check" {
		t.Errorf("t=4750 LCD line 1: got %q", got)
	}

	c.Tick(5000)
	if got := p.lcd.Line(1); got != "COMPLETE!" {
		t.Errorf("t=5000 LCD line 1: got %q", got)
	}
	if c.Sequencer().Sequence() != SoundComplete {
		t.Errorf("expected completion fanfare, got %q", c.Sequencer().Sequence().Name())
	}

	tickRange(c, 5250, 5750, 250)
	expectState(t, c, StateStartup, "t=5750")
	if !c.SystemLocked() {
		t.Error("system must stay locked until Ready")
	}

	e := lastEvent(t, c.Tick(6000))
	expectState(t, c, StateReady, "t=6000")
	if c.SystemLocked() {
		t.Error("system should unlock on Ready")
	}
	if e.At != 6000 || e.Reason != "self-check complete" {
		t.Errorf("unexpected event %+v", e)
	}
	if !p.channels[ChannelReady] || p.channels[ChannelRelay] {
		t.Errorf("Ready outputs: got %v", p.channels)
	}
	if c.Sequencer().Active() {
		t.Error("buzzer should be silent in Ready")
	}
}

func TestStartupIrregularTicks(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{}, 0)

	tickRange(c, 0, 5900, 100)
	expectState(t, c, StateStartup, "t=5900")
	c.Tick(6000)
	expectState(t, c, StateReady, "t=6000")
}

func TestStartupStallRunsOneCheckPerTick(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{}, 0)

	c.Tick(0)
	c.Tick(10000)
	expectState(t, c, StateStartup, "after stall")
	if c.startupCheckIndex != 2 {
		t.Errorf("expected 2 checks after stall, got %d", c.startupCheckIndex)
	}
	c.Tick(10100)
	if c.startupCheckIndex != 2 {
		t.Errorf("schedule should re-anchor at the stalled tick, got %d checks", c.startupCheckIndex)
	}
	c.Tick(10250)
	if c.startupCheckIndex != 3 {
		t.Errorf("expected 3 checks at 10250, got %d", c.startupCheckIndex)
	}
}

func TestSplashToStartup(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{Initial: StateSplash, Banner: [2]string{"Luke's Rocket", "Controller v0.1"}}, 0)

	expectState(t, c, StateSplash, "boot")
	if got := p.lcd.Line(0); got != "Luke's Rocket" {
		t.Errorf("banner line 0: got %q", got)
	}
	tickRange(c, 0, 4999, 100)
	expectState(t, c, StateSplash, "t=4999")
	if c.Remaining(4999) != 1 {
		t.Errorf("Remaining: got %d, want 1", c.Remaining(4999))
	}

	e := lastEvent(t, c.Tick(5000))
	expectState(t, c, StateStartup, "t=5000")
	if e.Reason != "splash done" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if !c.SystemLocked() {
		t.Error("Startup after splash must be locked")
	}
}

func TestSplashIgnoresControls(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{Initial: StateSplash}, 0)
	p.arm, p.launch = true, true

	tickRange(c, 0, 4900, 100)
	expectState(t, c, StateSplash, "arm during splash")

	c.Tick(5000)
	expectState(t, c, StateStartup, "t=5000")
	c.Tick(5100)
	expectState(t, c, StateFault, "arm still engaged at self-check")
}

func TestReadyArmsAndDisarms(t *testing.T) {
	c, p := bootToReady(t, 0, Options{})

	c.Tick(6100)
	expectState(t, c, StateReady, "no input")

	p.arm = true
	e := lastEvent(t, c.Tick(6200))
	expectState(t, c, StateArmed, "arm engaged")
	if e.Reason != "arm engaged" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if !p.channels[ChannelArmed] || p.channels[ChannelReady] {
		t.Errorf("Armed outputs: got %v", p.channels)
	}
	if c.Sequencer().Sequence() != SoundArmed {
		t.Error("expected armed siren")
	}

	p.arm = false
	c.Tick(6300)
	expectState(t, c, StateReady, "arm released")
}

func TestArmedShortLaunchPressIgnored(t *testing.T) {
	c, p := bootToReady(t, 0, Options{})
	p.arm = true
	c.Tick(6000)
	expectState(t, c, StateArmed, "t=6000")

	p.launch = true
	tickRange(c, 6000, 6200, 50)
	expectState(t, c, StateArmed, "launch held 200ms")

	p.launch = false
	c.Tick(6250)
	expectState(t, c, StateArmed, "launch released")
	if c.launchHold.active {
		t.Error("releasing launch should zero the hold timer")
	}

	// A new press starts from zero
	p.launch = true
	c.Tick(6300)
	c.Tick(6500)
	expectState(t, c, StateArmed, "200ms into second press")
	c.Tick(6550)
	expectState(t, c, StateLaunchCountdown, "250ms into second press")
}

func TestCountdownHintRoundsUp(t *testing.T) {
	c, p := toCountdown(t, 0)

	// 950ms left still shows a whole second; the hint never reads 0s while holding.
	c.Tick(10300)
	if got := p.lcd.Line(1); got != "Hold 1s" {
		t.Errorf("t=10300: got %q, want Hold 1s", got)
	}
	c.Tick(11200)
	if got := p.lcd.Line(1); got != "Hold 1s" {
		t.Errorf("t=11200: got %q, want Hold 1s", got)
	}
}

func TestPartialTimingKeepsDefaults(t *testing.T) {
	c, p := bootToReady(t, 0, Options{Timing: Timing{RelayOn: 2000}})

	tm := c.Timing()
	if tm.RelayOn != 2000 {
		t.Errorf("RelayOn: got %d, want 2000", tm.RelayOn)
	}
	if tm.Cooldown != 5000 || tm.HoldToLaunch != 5000 || tm.StartupChecks != len(StartupChecks) {
		t.Errorf("unset fields should keep defaults: %+v", tm)
	}

	p.arm = true
	c.Tick(6000)
	p.launch = true
	tickRange(c, 6000, 6250, 50)
	expectState(t, c, StateLaunchCountdown, "t=6250")
	tickRange(c, 6300, 11250, 50)
	expectState(t, c, StateLaunching, "t=11250")

	c.Tick(13200)
	expectState(t, c, StateLaunching, "t=13200")
	c.Tick(13250)
	expectState(t, c, StateCooldown, "after a 2000ms relay window")
}

func TestCountdownToLaunching(t *testing.T) {
	c, p := toCountdown(t, 0)

	if c.EnteredAt() != 6250 {
		t.Errorf("EnteredAt: got %d", c.EnteredAt())
	}
	c.Tick(6300)
	if got := p.lcd.Line(1); got != "Hold 5s" {
		t.Errorf("countdown display: got %q", got)
	}
	if got := c.Remaining(7250); got != 4000 {
		t.Errorf("Remaining: got %d, want 4000", got)
	}

	tickRange(c, 6350, 11249, 50)
	expectState(t, c, StateLaunchCountdown, "t=11249")

	e := lastEvent(t, c.Tick(11250))
	expectState(t, c, StateLaunching, "t=11250")
	if e.Reason != "hold complete" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if !p.channels[ChannelRelay] || !p.channels[ChannelLaunchLamp] {
		t.Errorf("Launching outputs: got %v", p.channels)
	}
	if c.Counts().Launches != 1 {
		t.Errorf("Launches: got %d", c.Counts().Launches)
	}
}

func TestCountdownEarlyReleaseAborts(t *testing.T) {
	c, p := toCountdown(t, 0)
	tickRange(c, 6300, 8950, 50)

	p.launch = false
	e := lastEvent(t, c.Tick(9000))
	expectState(t, c, StateAbort, "t=9000")
	if e.Reason != "launch released early" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if !p.allOff() {
		t.Errorf("Abort outputs: got %v", p.channels)
	}

	c.Tick(10499)
	expectState(t, c, StateAbort, "t=10499")
	c.Tick(10500)
	expectState(t, c, StateArmed, "abort inhibit elapsed with arm engaged")
	if c.Counts().Aborts != 1 {
		t.Errorf("Aborts: got %d", c.Counts().Aborts)
	}
}

func TestAbortReturnsToReadyWhenDisarmed(t *testing.T) {
	c, p := toCountdown(t, 0)
	p.launch = false
	c.Tick(7000)
	expectState(t, c, StateAbort, "t=7000")

	p.arm = false
	c.Tick(8499)
	expectState(t, c, StateAbort, "t=8499")
	c.Tick(8500)
	expectState(t, c, StateReady, "t=8500")
}

func TestCountdownInterlockBreakFaults(t *testing.T) {
	c, p := toCountdown(t, 0)
	p.arm = false

	e := lastEvent(t, c.Tick(7000))
	expectState(t, c, StateFault, "arm released in countdown")
	if e.Reason != "arm interlock broken" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if c.Counts().InterlockBreaks != 1 {
		t.Errorf("InterlockBreaks: got %d", c.Counts().InterlockBreaks)
	}
}

func TestCountdownInterlockCheckedBeforeLaunch(t *testing.T) {
	c, p := toCountdown(t, 0)
	p.arm, p.launch = false, false
	c.Tick(7000)
	expectState(t, c, StateFault, "both released")
}

func TestLaunchingIsLatched(t *testing.T) {
	c, p := toCountdown(t, 0)
	tickRange(c, 6300, 11250, 50)
	expectState(t, c, StateLaunching, "t=11250")

	for now := uint32(11300); now < 16250; now += 50 {
		p.arm = now%200 == 0
		p.launch = now%300 == 0
		p.reset = now%500 == 0
		c.Tick(now)
		if c.State() != StateLaunching {
			t.Fatalf("t=%d: expected Launching, got %s", now, c.State())
		}
		if !p.channels[ChannelRelay] {
			t.Fatalf("t=%d: relay dropped during launch window", now)
		}
	}

	e := lastEvent(t, c.Tick(16250))
	expectState(t, c, StateCooldown, "t=16250")
	if e.Reason != "relay window elapsed" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if !p.allOff() {
		t.Errorf("expected all outputs off after launch window, got %v", p.channels)
	}
}

func TestCooldownAlwaysFaults(t *testing.T) {
	c, p := toCountdown(t, 0)
	tickRange(c, 6300, 16250, 50)
	expectState(t, c, StateCooldown, "t=16250")

	p.arm, p.launch = false, false
	c.Tick(21249)
	expectState(t, c, StateCooldown, "t=21249")

	e := lastEvent(t, c.Tick(21250))
	expectState(t, c, StateFault, "t=21250")
	if e.Reason != "post-fire safing" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if c.Sequencer().Sequence() != SoundFault || !c.Sequencer().Active() {
		t.Error("expected looping fault tone")
	}
}

// faultAt returns a controller that entered Fault at 21250 via post-fire
// safing with all controls released.
func faultAt(t *testing.T) (*Controller, *fakePanel) {
	t.Helper()
	c, p := toCountdown(t, 0)
	tickRange(c, 6300, 21250, 50)
	expectState(t, c, StateFault, "t=21250")
	p.arm, p.launch = false, false
	return c, p
}

func TestFaultRecoveryRitual(t *testing.T) {
	c, p := faultAt(t)

	p.reset = true
	tickRange(c, 21250, 23700, 50)
	c.Tick(23749)
	expectState(t, c, StateFault, "t=23749")

	e := lastEvent(t, c.Tick(23750))
	expectState(t, c, StateReady, "t=23750")
	if e.Reason != "fault cleared" {
		t.Errorf("reason: got %q", e.Reason)
	}
	if c.SystemLocked() {
		t.Error("Ready must be unlocked")
	}
}

func TestFaultResetReleaseRestartsHold(t *testing.T) {
	c, p := faultAt(t)

	p.reset = true
	tickRange(c, 21250, 23550, 50)
	p.reset = false
	c.Tick(23600)
	p.reset = true
	c.Tick(23700)

	tickRange(c, 23750, 26150, 50)
	expectState(t, c, StateFault, "t=26150")
	c.Tick(26199)
	expectState(t, c, StateFault, "t=26199")
	c.Tick(26200)
	expectState(t, c, StateReady, "t=26200")
}

func TestFaultRequiresDisarm(t *testing.T) {
	c, p := faultAt(t)
	p.arm = true
	p.reset = true

	tickRange(c, 21250, 30000, 50)
	expectState(t, c, StateFault, "armed reset hold")
	if got := p.lcd.Line(1); got != "Disarm & Reset" {
		t.Errorf("hint: got %q", got)
	}

	// Disarming starts the hold from zero
	p.arm = false
	c.Tick(30050)
	c.Tick(32549)
	expectState(t, c, StateFault, "t=32549")
	c.Tick(32550)
	expectState(t, c, StateReady, "t=32550")
}

func TestGlobalFaultFromEveryState(t *testing.T) {
	states := []State{
		StateStartup, StateSplash, StateReady, StateArmed, StateLaunchCountdown,
		StateLaunching, StateCooldown, StateAbort,
	}
	for _, s := range states {
		t.Run(s.String(), func(t *testing.T) {
			faulted := false
			p := newFakePanel()
			c := NewController(p, p, Options{Fault: func() bool { return faulted }}, 0)
			c.Enter(s, 100)
			expectState(t, c, s, "forced")

			faulted = true
			e := lastEvent(t, c.Tick(101))
			expectState(t, c, StateFault, "predicate true")
			if e.From != s || e.Reason != "global fault" {
				t.Errorf("unexpected event %+v", e)
			}
			if !p.allOff() {
				t.Errorf("outputs not safed: %v", p.channels)
			}
		})
	}
}

func TestGlobalFaultBlocksRecovery(t *testing.T) {
	faulted := true
	p := newFakePanel()
	c := NewController(p, p, Options{Fault: func() bool { return faulted }}, 0)
	c.Tick(0)
	expectState(t, c, StateFault, "predicate at boot")

	p.reset = true
	tickRange(c, 100, 10000, 100)
	expectState(t, c, StateFault, "predicate still true")

	faulted = false
	c.Tick(10100)
	expectState(t, c, StateReady, "predicate cleared with reset held")
}

func TestEnterClearsTimers(t *testing.T) {
	c, p := bootToReady(t, 0, Options{})
	p.arm = true
	c.Tick(6000)
	p.launch = true
	c.Tick(6100)
	if !c.launchHold.active {
		t.Fatal("expected launch hold active")
	}

	c.Enter(StateReady, 6150)
	if c.launchHold.active || c.deadline.set || c.resetHold.active || c.refresh.set {
		t.Error("Enter(Ready) leaked a timer")
	}

	c.Enter(StateAbort, 6200)
	if !c.deadline.set {
		t.Fatal("Abort should set a deadline")
	}
	c.Enter(StateFault, 6250)
	if c.deadline.set {
		t.Error("Enter(Fault) leaked the abort deadline")
	}

	p.arm, p.launch, p.reset = false, false, true
	c.Tick(6300)
	if !c.resetHold.active {
		t.Fatal("expected reset hold active")
	}
	c.Enter(StateArmed, 6350)
	if c.resetHold.active {
		t.Error("Enter(Armed) leaked the reset hold")
	}
	if c.startupCheckIndex != 0 || c.startupComplete {
		t.Error("startup progress leaked")
	}
}

func TestEnterFaultDuringLaunchingSafesRelay(t *testing.T) {
	c, p := toCountdown(t, 0)
	tickRange(c, 6300, 12000, 50)
	expectState(t, c, StateLaunching, "t=12000")

	c.Enter(StateFault, 12000)
	expectState(t, c, StateFault, "forced")
	if p.channels[ChannelRelay] || c.Channel(ChannelRelay) {
		t.Error("relay must be off after forced Fault")
	}
	if c.deadline.set {
		t.Error("launch deadline leaked into Fault")
	}
	events := c.Tick(12050)
	if len(events) != 1 || events[0].Reason != "forced" {
		t.Errorf("expected forced event to be reported, got %+v", events)
	}
	expectState(t, c, StateFault, "t=12050")
}

func TestTickIdempotentBeforeDeadlines(t *testing.T) {
	c, _ := toCountdown(t, 0)
	tickRange(c, 6300, 11250, 50)
	for i := 0; i < 10; i++ {
		if events := c.Tick(11250); len(events) != 0 {
			t.Fatalf("repeated tick produced events %+v", events)
		}
	}
	expectState(t, c, StateLaunching, "repeated ticks")
}

// runLaunchScenario drives a full arm/launch/safe/recover cycle starting at
// base and checks every transition time relative to base.
func runLaunchScenario(t *testing.T, base uint32) {
	t.Helper()
	c, p := toCountdown(t, base)

	tickRange(c, base+6300, base+11200, 50)
	c.Tick(base + 11249)
	expectState(t, c, StateLaunchCountdown, "+11249")
	c.Tick(base + 11250)
	expectState(t, c, StateLaunching, "+11250")

	tickRange(c, base+11300, base+16200, 50)
	c.Tick(base + 16249)
	expectState(t, c, StateLaunching, "+16249")
	c.Tick(base + 16250)
	expectState(t, c, StateCooldown, "+16250")

	p.arm, p.launch = false, false
	tickRange(c, base+16300, base+21200, 50)
	c.Tick(base + 21249)
	expectState(t, c, StateCooldown, "+21249")
	c.Tick(base + 21250)
	expectState(t, c, StateFault, "+21250")

	p.reset = true
	tickRange(c, base+21250, base+23700, 50)
	c.Tick(base + 23749)
	expectState(t, c, StateFault, "+23749")
	c.Tick(base + 23750)
	expectState(t, c, StateReady, "+23750")

	counts := c.Counts()
	if counts.Launches != 1 || counts.Faults != 1 || counts.Aborts != 0 {
		t.Errorf("counts: got %+v", counts)
	}
}

func TestLaunchScenario(t *testing.T) {
	runLaunchScenario(t, 0)
}

func TestLaunchScenarioAcrossWrap(t *testing.T) {
	// Each base puts the wrap inside a different state.
	offsets := []uint32{3000, 6125, 8000, 11250, 13000, 18000, 22500, 23750}
	for _, off := range offsets {
		base := uint32(math.MaxUint32) - off + 1
		runLaunchScenario(t, base)
	}
	for off := uint32(1); off < 24000; off += 997 {
		base := uint32(math.MaxUint32) - off + 1
		runLaunchScenario(t, base)
	}
}

func TestReachedAcrossWrap(t *testing.T) {
	cases := []struct {
		now, deadline uint32
		want          bool
	}{
		{0, 0, true},
		{99, 100, false},
		{100, 100, true},
		{math.MaxUint32, 5, false},
		{5, math.MaxUint32, true},
		{4, math.MaxUint32 - 10, true},
		{math.MaxUint32 - 10, 4, false},
	}
	for _, tc := range cases {
		if got := reached(tc.now, tc.deadline); got != tc.want {
			t.Errorf("reached(%d, %d): got %v, want %v", tc.now, tc.deadline, got, tc.want)
		}
	}
}

func TestHoldAtZeroTimestamp(t *testing.T) {
	var h hold
	if got := h.update(true, 0); got != 0 || !h.active {
		t.Fatalf("hold starting at t=0 not tracked: held=%d active=%v", got, h.active)
	}
	if got := h.update(true, 300); got != 300 {
		t.Errorf("held: got %d, want 300", got)
	}
	if got := h.update(false, 400); got != 0 || h.active {
		t.Errorf("release should zero the hold")
	}
}

func TestCheckHeartbeat(t *testing.T) {
	p := newFakePanel()
	c := NewController(p, p, Options{}, 500)

	if hb := c.CheckHeartbeat(1000, 0); hb != nil {
		t.Error("interval 0 should disable heartbeat")
	}
	if hb := c.CheckHeartbeat(1499, 1000); hb != nil {
		t.Error("heartbeat before interval")
	}
	hb := c.CheckHeartbeat(1500, 1000)
	if hb == nil {
		t.Fatal("expected heartbeat at +1000")
	}
	if hb.UptimeMs != 1000 || hb.State != StateStartup || hb.At != 1500 {
		t.Errorf("unexpected heartbeat %+v", hb)
	}
	if hb := c.CheckHeartbeat(2000, 1000); hb != nil {
		t.Error("heartbeat interval should restart from last heartbeat")
	}
	if hb := c.CheckHeartbeat(2500, 1000); hb == nil {
		t.Error("expected second heartbeat")
	}
}

func TestStateString(t *testing.T) {
	if StateLaunchCountdown.String() != "LAUNCH_COUNTDOWN" {
		t.Errorf("got %q", StateLaunchCountdown.String())
	}
	if State(99).String() != "UNKNOWN" {
		t.Errorf("got %q", State(99).String())
	}
	if ChannelLaunchLamp.String() != "launch_lamp" {
		t.Errorf("got %q", ChannelLaunchLamp.String())
	}
}
