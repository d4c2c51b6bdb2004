// Command launch-controller runs the model rocket launch panel: it polls the
// ARM/RESET/LAUNCH controls, drives the lamps, ignition relay, buzzer and LCD
// through the launch state machine, and publishes transitions to MQTT.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/launch-controller/internal/buzzer"
	"github.com/sweeney/launch-controller/internal/display"
	"github.com/sweeney/launch-controller/internal/gpio"
	"github.com/sweeney/launch-controller/internal/logic"
	"github.com/sweeney/launch-controller/internal/mqtt"
	"github.com/sweeney/launch-controller/internal/panel"
	"github.com/sweeney/launch-controller/internal/status"
	"github.com/sweeney/launch-controller/internal/web"
)

func main() {
	cfg, err := parseConfig(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func (c Config) pins() gpio.Pins {
	return gpio.Pins{
		Arm:        c.PinArm,
		Reset:      c.PinReset,
		Launch:     c.PinLaunch,
		Fault:      c.PinFault,
		Ready:      c.PinReady,
		Armed:      c.PinArmed,
		LaunchLamp: c.PinLaunchLamp,
		Relay:      c.PinRelay,
	}
}

func run(cfg Config) error {
	// Initialize GPIO inputs
	reader, err := gpio.NewRealReader(cfg.pins(), cfg.Debounce)
	if err != nil {
		return fmt.Errorf("init gpio inputs: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if cfg.PrintState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("ARM: %s, RESET: %s, LAUNCH: %s, FAULT: %s\n",
			stateString(s.Arm), stateString(s.Reset), stateString(s.Launch), stateString(s.Fault))
		return nil
	}

	// Outputs come up inactive; Close drives them inactive again, relay first
	writer, err := gpio.NewRealWriter(cfg.pins(), cfg.RelayActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio outputs: %w", err)
	}
	defer writer.Close()

	tone := newTone(cfg)
	defer tone.Close()

	mirror := display.NewBuffer()
	var lcd logic.Display = mirror
	if cfg.LCD != "" {
		serialLCD, err := display.OpenSerial(cfg.LCD, cfg.LCDBaud)
		if err != nil {
			log.Printf("lcd disabled: %v", err)
		} else {
			defer serialLCD.Close()
			lcd = display.Tee{mirror, serialLCD}
		}
	}

	p := panel.New(reader, writer, tone, lcd, panel.Config{
		DebounceMs: uint32(cfg.Debounce.Milliseconds()),
	})

	// Initialize MQTT
	publisher, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:         cfg.Poll.Milliseconds(),
		DebounceMs:     cfg.Debounce.Milliseconds(),
		HeartbeatMs:    cfg.Heartbeat.Milliseconds(),
		Broker:         cfg.Broker,
		HTTPPort:       cfg.HTTPAddr,
		Buzzer:         cfg.Buzzer,
		LCD:            cfg.LCD,
		Splash:         cfg.Splash,
		RelayActiveLow: cfg.RelayActiveLow,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: poll=%v debounce=%v broker=%q heartbeat=%v buzzer=%s splash=%v",
		cfg.Poll, cfg.Debounce, cfg.Broker, cfg.Heartbeat, cfg.Buzzer, cfg.Splash)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	opts := logic.Options{}
	if cfg.Splash {
		opts.Initial = logic.StateSplash
	}
	clock := newMillisClock(cfg.ClockOffset, time.Now)

	return runLoop(loop{
		panel:      p,
		mirror:     mirror,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		opts:       opts,
		heartbeat:  cfg.Heartbeat,
		millis:     clock.Millis,
		now:        time.Now,
		tick:       ticker.C,
		sig:        sigCh,
	})
}

// mqttClient is what the daemon needs from MQTT.
type mqttClient interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

func newPublisher(cfg Config) (mqttClient, error) {
	if cfg.Broker == "" {
		log.Printf("mqtt disabled")
		return offlinePublisher{}, nil
	}
	rp, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID)
	if err != nil {
		return nil, err
	}
	return mqtt.NewAsync(rp, 64), nil
}

// offlinePublisher drops everything; used when no broker is configured.
type offlinePublisher struct{}

func (offlinePublisher) Publish(mqtt.Transition) error        { return nil }
func (offlinePublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (offlinePublisher) Close() error                         { return nil }
func (offlinePublisher) IsConnected() bool                    { return false }

func newTone(cfg Config) buzzer.Tone {
	switch cfg.Buzzer {
	case "pwm":
		t, err := buzzer.NewPWM(cfg.BuzzerPin)
		if err != nil {
			log.Printf("buzzer disabled: %v", err)
			return buzzer.Silent{}
		}
		return t
	case "midi":
		t, err := buzzer.NewMIDI(cfg.MIDIPort, uint8(cfg.MIDIChannel))
		if err != nil {
			log.Printf("buzzer disabled: %v", err)
			return buzzer.Silent{}
		}
		return t
	}
	return buzzer.Silent{}
}

// loop holds everything runLoop needs, so tests can substitute fakes.
type loop struct {
	panel      *panel.Panel
	mirror     *display.Buffer
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	opts       logic.Options
	heartbeat  time.Duration
	millis     func() uint32
	now        func() time.Time
	tick       <-chan time.Time
	sig        <-chan os.Signal
}

func runLoop(l loop) error {
	l.opts.Fault = l.panel.Fault
	ctrl := logic.NewController(l.panel, l.panel, l.opts, l.millis())
	heartbeatMs := uint32(l.heartbeat.Milliseconds())
	readFailing := false

	for {
		select {
		case s := <-l.sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// Relay off before anything that could block
			if err := l.panel.Safe(); err != nil {
				log.Printf("failed to safe outputs: %v", err)
			}

			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				l.refresh(ctrl, l.millis())
				snap := l.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-l.tick:
			ms := l.millis()
			if err := l.panel.Update(ms); err != nil {
				if !readFailing {
					log.Printf("gpio read error: %v", err)
				}
				readFailing = true
			} else {
				readFailing = false
			}

			for _, e := range ctrl.Tick(ms) {
				l.transition(ctrl, e)
			}

			if hb := ctrl.CheckHeartbeat(ms, heartbeatMs); hb != nil {
				c := hb.Counts
				log.Printf("heartbeat: state=%s uptime=%v launches=%d aborts=%d faults=%d interlock_breaks=%d",
					hb.State, time.Duration(hb.UptimeMs)*time.Millisecond,
					c.Launches, c.Aborts, c.Faults, c.InterlockBreaks)

				hbEvent := mqtt.SystemEvent{
					Timestamp: l.now(),
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
					l.refresh(ctrl, ms)
					hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP/websocket consumers
			if l.tracker != nil {
				l.refresh(ctrl, ms)
			}
		}
	}
}

func (l loop) transition(ctrl *logic.Controller, e logic.Event) {
	log.Printf("transition: %s -> %s (%s)", e.From, e.To, e.Reason)
	if e.To == logic.StateFault {
		if reason := l.panel.FaultReason(); reason != "" {
			log.Printf("fault source: %s", reason)
		}
	}

	at := l.now()
	if l.tracker != nil {
		l.tracker.Record(at, e)
	}
	t := mqtt.Transition{Timestamp: at, Event: e, Counts: ctrl.Counts()}
	if err := l.publisher.Publish(t); err != nil {
		log.Printf("publish error: %v", err)
		// Don't crash on publish failure
	}
}

func (l loop) refresh(ctrl *logic.Controller, ms uint32) {
	in := l.panel.Inputs()
	v := status.Controller{
		State:       ctrl.State(),
		Locked:      ctrl.SystemLocked(),
		Channels:    ctrl.Channels(),
		Inputs:      status.Inputs{Arm: in.Arm, Reset: in.Reset, Launch: in.Launch, Fault: in.Fault},
		RemainingMs: ctrl.Remaining(ms),
		FaultReason: l.panel.FaultReason(),
		Counts:      ctrl.Counts(),
		ClockMs:     ms,
	}
	if l.mirror != nil {
		v.Display = l.mirror.Lines()
	}
	l.tracker.Update(v)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType     = "NETWORK_TYPE"
	envNetworkIP       = "NETWORK_IP"
	envNetworkStatus   = "NETWORK_STATUS"
	envNetworkWifiSSID = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:   os.Getenv(envNetworkType),
		IP:     os.Getenv(envNetworkIP),
		Status: s,
		SSID:   os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
