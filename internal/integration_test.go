package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/launch-controller/internal/buzzer"
	"github.com/sweeney/launch-controller/internal/display"
	"github.com/sweeney/launch-controller/internal/gpio"
	"github.com/sweeney/launch-controller/internal/logic"
	"github.com/sweeney/launch-controller/internal/mqtt"
	"github.com/sweeney/launch-controller/internal/panel"
	"github.com/sweeney/launch-controller/internal/status"
)

const pollMs = 10

// switchBox is a Reader whose levels the test flips directly.
type switchBox struct {
	s   gpio.Sample
	err error
}

func (b *switchBox) Read() (gpio.Sample, error) { return b.s, b.err }
func (b *switchBox) Close() error               { return nil }

// bench wires the panel, controller, publisher and tracker the way the
// daemon's control loop does, with a simulated millisecond clock.
type bench struct {
	t       *testing.T
	box     *switchBox
	writer  *gpio.FakeWriter
	tone    *buzzer.FakeTone
	lcd     *display.Buffer
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	panel   *panel.Panel
	ctrl    *logic.Controller

	now        uint32
	wall       time.Time
	relayOnAt  uint32
	relayOffAt uint32
	relayOn    bool
}

func newBench(t *testing.T) *bench {
	t.Helper()
	b := &bench{
		t:      t,
		box:    &switchBox{},
		writer: gpio.NewFakeWriter(),
		tone:   buzzer.NewFakeTone(),
		lcd:    display.NewBuffer(),
		pub:    mqtt.NewFakePublisher(),
		wall:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	b.tracker = status.NewTracker(b.wall, status.Config{PollMs: pollMs, DebounceMs: 30})
	b.panel = panel.New(b.box, b.writer, b.tone, b.lcd, panel.Config{DebounceMs: 30})
	b.ctrl = logic.NewController(b.panel, b.panel, logic.Options{Fault: b.panel.Fault}, b.now)
	return b
}

// run holds the given inputs for ms milliseconds of polling.
func (b *bench) run(s gpio.Sample, ms uint32) {
	b.box.s = s
	for elapsed := uint32(0); elapsed < ms; elapsed += pollMs {
		b.now += pollMs
		b.wall = b.wall.Add(pollMs * time.Millisecond)
		b.panel.Update(b.now)

		for _, e := range b.ctrl.Tick(b.now) {
			b.tracker.Record(b.wall, e)
			if err := b.pub.Publish(mqtt.Transition{Timestamp: b.wall, Event: e, Counts: b.ctrl.Counts()}); err != nil {
				b.t.Fatalf("publish: %v", err)
			}
		}

		relay := b.writer.Levels[logic.ChannelRelay]
		if relay && !b.relayOn {
			b.relayOnAt = b.now
		}
		if !relay && b.relayOn {
			b.relayOffAt = b.now
		}
		b.relayOn = relay

		in := b.panel.Inputs()
		b.tracker.Update(status.Controller{
			State:       b.ctrl.State(),
			Locked:      b.ctrl.SystemLocked(),
			Channels:    b.ctrl.Channels(),
			Inputs:      status.Inputs{Arm: in.Arm, Reset: in.Reset, Launch: in.Launch, Fault: in.Fault},
			RemainingMs: b.ctrl.Remaining(b.now),
			Display:     b.lcd.Lines(),
			FaultReason: b.panel.FaultReason(),
			Counts:      b.ctrl.Counts(),
			ClockMs:     b.now,
		})
	}
}

func (b *bench) expect(want logic.State) {
	b.t.Helper()
	if got := b.ctrl.State(); got != want {
		b.t.Fatalf("at %dms: state %s, want %s", b.now, got, want)
	}
}

func (b *bench) last() mqtt.Transition {
	b.t.Helper()
	tr, ok := b.pub.Last()
	if !ok {
		b.t.Fatal("no transitions published")
	}
	return tr
}

var (
	idle      = gpio.Sample{}
	arm       = gpio.Sample{Arm: true}
	armLaunch = gpio.Sample{Arm: true, Launch: true}
	reset     = gpio.Sample{Reset: true}
)

// TestIntegrationLaunchSequence runs a full firing from power-on through
// post-fire recovery using fakes for every device.
func TestIntegrationLaunchSequence(t *testing.T) {
	b := newBench(t)

	b.run(idle, 7000)
	b.expect(logic.StateReady)
	if !b.writer.Levels[logic.ChannelReady] {
		t.Error("ready lamp should be on")
	}
	if got := b.lcd.Lines(); got[0] != "READY" || got[1] != "Disarmed" {
		t.Errorf("lcd: got %q", got)
	}

	notes := len(b.tone.Notes)
	b.run(arm, 200)
	b.expect(logic.StateArmed)
	if len(b.tone.Notes) == notes {
		t.Error("expected the armed beep to play")
	}

	b.run(armLaunch, 1000)
	b.expect(logic.StateLaunchCountdown)
	if b.relayOn {
		t.Fatal("relay must stay off during countdown")
	}

	b.run(armLaunch, 5000)
	b.expect(logic.StateLaunching)
	if !b.writer.Levels[logic.ChannelRelay] || !b.writer.Levels[logic.ChannelLaunchLamp] {
		t.Errorf("launching outputs: got %v", b.writer.Levels)
	}

	// Inputs are ignored once the relay window opens.
	b.run(idle, 5000)
	b.expect(logic.StateCooldown)
	if b.relayOn {
		t.Fatal("relay should be off in cooldown")
	}
	if window := b.relayOffAt - b.relayOnAt; window != 5000 {
		t.Errorf("relay window: got %dms, want 5000", window)
	}

	b.run(idle, 5000)
	b.expect(logic.StateFault)
	if b.last().Event.Reason != "post-fire safing" {
		t.Errorf("reason: got %q", b.last().Event.Reason)
	}

	b.run(reset, 3000)
	b.expect(logic.StateReady)

	// Check the published payload for the launch.
	launch, ok := b.pub.Entered(logic.StateLaunching)
	if !ok {
		t.Fatal("no LAUNCHING transition published")
	}
	payload, err := mqtt.FormatPayload(launch)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	var p mqtt.Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Launch.Event != "LAUNCHING" || p.Launch.From != "LAUNCH_COUNTDOWN" {
		t.Errorf("payload: got %+v", p.Launch)
	}
	if p.Launch.Counts.Launches != 1 {
		t.Errorf("payload launches: got %d, want 1", p.Launch.Counts.Launches)
	}

	// The status view agrees with the controller.
	var sj status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(b.tracker.Snapshot()), &sj); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if sj.Status.State != "READY" || sj.Status.Counts.Launches != 1 || sj.Status.Counts.Faults != 1 {
		t.Errorf("status: state %s counts %+v", sj.Status.State, sj.Status.Counts)
	}
	wantHistory := []string{"STARTUP", "READY", "ARMED", "LAUNCH_COUNTDOWN", "LAUNCHING", "COOLDOWN", "FAULT", "READY"}
	if len(sj.Status.History) != len(wantHistory) {
		t.Fatalf("history: got %d entries, want %d", len(sj.Status.History), len(wantHistory))
	}
	for i, want := range wantHistory {
		if sj.Status.History[i].To != want {
			t.Errorf("history %d: got %s, want %s", i, sj.Status.History[i].To, want)
		}
	}
}

// TestIntegrationInterlockBreak releases ARM mid-countdown and recovers.
func TestIntegrationInterlockBreak(t *testing.T) {
	b := newBench(t)
	b.run(idle, 7000)
	b.run(arm, 200)
	b.run(armLaunch, 1000)
	b.expect(logic.StateLaunchCountdown)

	b.run(gpio.Sample{Launch: true}, 100)
	b.expect(logic.StateFault)
	if b.last().Event.Reason != "arm interlock broken" {
		t.Errorf("reason: got %q", b.last().Event.Reason)
	}
	if b.last().Counts.InterlockBreaks != 1 {
		t.Errorf("InterlockBreaks: got %d", b.last().Counts.InterlockBreaks)
	}
	if b.relayOnAt != 0 {
		t.Error("relay must never have energised")
	}

	// Reset is ignored while ARM is engaged.
	b.run(gpio.Sample{Arm: true, Reset: true}, 3000)
	b.expect(logic.StateFault)
	if got := b.lcd.Lines()[1]; got != "Disarm & Reset" {
		t.Errorf("hint: got %q", got)
	}

	// A short reset press is not enough.
	b.run(reset, 1000)
	b.run(idle, 100)
	b.expect(logic.StateFault)

	b.run(reset, 3000)
	b.expect(logic.StateReady)
}

// TestIntegrationEarlyReleaseAborts lets go of LAUNCH during the countdown.
func TestIntegrationEarlyReleaseAborts(t *testing.T) {
	b := newBench(t)
	b.run(idle, 7000)
	b.run(arm, 200)
	b.run(armLaunch, 2000)
	b.expect(logic.StateLaunchCountdown)

	b.run(arm, 100)
	b.expect(logic.StateAbort)
	if b.ctrl.Counts().Aborts != 1 {
		t.Errorf("Aborts: got %d", b.ctrl.Counts().Aborts)
	}

	// Pressing LAUNCH during the inhibit does nothing.
	b.run(armLaunch, 1000)
	b.expect(logic.StateAbort)

	b.run(arm, 1000)
	b.expect(logic.StateArmed)
}

// TestIntegrationRelayWriteFailure faults when the relay line cannot be
// driven and clears once it can.
func TestIntegrationRelayWriteFailure(t *testing.T) {
	b := newBench(t)
	b.run(idle, 7000)
	b.expect(logic.StateReady)

	b.writer.WriteError = errors.New("line busy")
	b.writer.FailOn = []logic.Channel{logic.ChannelRelay}
	b.run(arm, 200)
	b.expect(logic.StateFault)
	if got := b.panel.FaultReason(); got != "relay write failed" {
		t.Errorf("FaultReason: got %q", got)
	}

	// Reset cannot clear the fault while the relay is still failing.
	b.run(reset, 3000)
	b.expect(logic.StateFault)

	b.writer.WriteError = nil
	b.run(idle, 100)
	if got := b.panel.FaultReason(); got != "" {
		t.Errorf("FaultReason after recovery: got %q", got)
	}
	b.run(reset, 3000)
	b.expect(logic.StateReady)
}

// TestIntegrationInputsStuckAtBoot refuses to pass self-check with ARM on.
func TestIntegrationInputsStuckAtBoot(t *testing.T) {
	b := newBench(t)
	b.run(arm, 500)
	b.expect(logic.StateFault)
	if b.last().Event.Reason != "control active at startup" {
		t.Errorf("reason: got %q", b.last().Event.Reason)
	}
}

// TestIntegrationReadFailureInCountdown loses the inputs just before the
// hold completes; the relay must not close on stale levels.
func TestIntegrationReadFailureInCountdown(t *testing.T) {
	b := newBench(t)
	b.run(idle, 7000)
	b.run(arm, 200)
	b.run(armLaunch, 1000)
	b.expect(logic.StateLaunchCountdown)

	for b.ctrl.Remaining(b.now) > 2*pollMs {
		b.run(armLaunch, pollMs)
	}
	b.expect(logic.StateLaunchCountdown)

	b.box.err = errors.New("chip gone")
	b.run(armLaunch, pollMs*(panel.DefaultReadErrorLimit-1))
	b.expect(logic.StateFault)
	if b.last().Event.Reason != "arm interlock broken" {
		t.Errorf("reason: got %q", b.last().Event.Reason)
	}
	if b.relayOnAt != 0 || b.writer.Levels[logic.ChannelRelay] {
		t.Error("relay must never have energised")
	}
}

// TestIntegrationReadFailure faults after repeated read errors.
func TestIntegrationReadFailure(t *testing.T) {
	b := newBench(t)
	b.run(idle, 7000)
	b.expect(logic.StateReady)

	b.box.err = errors.New("chip gone")
	b.run(idle, pollMs*panel.DefaultReadErrorLimit)
	b.expect(logic.StateFault)
	if b.tracker.Snapshot().FaultReason != "input read failing" {
		t.Errorf("FaultReason: got %q", b.tracker.Snapshot().FaultReason)
	}

	b.box.err = nil
	b.run(reset, 3000)
	b.expect(logic.StateReady)
}
