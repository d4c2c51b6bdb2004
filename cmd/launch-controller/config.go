package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the daemon configuration. Environment variables supply the
// defaults; command-line flags override them.
type Config struct {
	Poll      time.Duration `env:"LAUNCH_POLL" envDefault:"10ms"`
	Debounce  time.Duration `env:"LAUNCH_DEBOUNCE" envDefault:"30ms"`
	Heartbeat time.Duration `env:"LAUNCH_HEARTBEAT" envDefault:"15m"`

	Broker   string `env:"LAUNCH_BROKER" envDefault:"tcp://localhost:1883"`
	ClientID string `env:"LAUNCH_MQTT_CLIENT_ID" envDefault:"launch-controller"`
	HTTPAddr string `env:"LAUNCH_HTTP" envDefault:":80"`

	PinArm         int  `env:"LAUNCH_PIN_ARM" envDefault:"17"`
	PinReset       int  `env:"LAUNCH_PIN_RESET" envDefault:"27"`
	PinLaunch      int  `env:"LAUNCH_PIN_LAUNCH" envDefault:"22"`
	PinFault       int  `env:"LAUNCH_PIN_FAULT" envDefault:"-1"`
	PinReady       int  `env:"LAUNCH_PIN_READY" envDefault:"5"`
	PinArmed       int  `env:"LAUNCH_PIN_ARMED" envDefault:"6"`
	PinLaunchLamp  int  `env:"LAUNCH_PIN_LAUNCH_LAMP" envDefault:"16"`
	PinRelay       int  `env:"LAUNCH_PIN_RELAY" envDefault:"26"`
	RelayActiveLow bool `env:"LAUNCH_RELAY_ACTIVE_LOW"`

	Buzzer      string `env:"LAUNCH_BUZZER" envDefault:"pwm"`
	BuzzerPin   string `env:"LAUNCH_BUZZER_PIN" envDefault:"GPIO18"`
	MIDIPort    string `env:"LAUNCH_MIDI_PORT"`
	MIDIChannel int    `env:"LAUNCH_MIDI_CHANNEL" envDefault:"0"`

	LCD     string `env:"LAUNCH_LCD"`
	LCDBaud int    `env:"LAUNCH_LCD_BAUD" envDefault:"9600"`

	Splash      bool   `env:"LAUNCH_SPLASH"`
	ClockOffset uint32 `env:"LAUNCH_CLOCK_OFFSET"`

	PrintState bool
}

// parseConfig loads env defaults, then applies flags from args.
func parseConfig(name string, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.DurationVar(&cfg.Poll, "poll", cfg.Poll, "GPIO polling interval")
	fs.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "Debounce duration")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "MQTT client ID")
	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	fs.IntVar(&cfg.PinArm, "pin-arm", cfg.PinArm, "BCM pin for the ARM switch")
	fs.IntVar(&cfg.PinReset, "pin-reset", cfg.PinReset, "BCM pin for the RESET button")
	fs.IntVar(&cfg.PinLaunch, "pin-launch", cfg.PinLaunch, "BCM pin for the LAUNCH button")
	fs.IntVar(&cfg.PinFault, "pin-fault", cfg.PinFault, "BCM pin for an external fault line (-1 if not wired)")
	fs.IntVar(&cfg.PinReady, "pin-ready", cfg.PinReady, "BCM pin for the ready lamp")
	fs.IntVar(&cfg.PinArmed, "pin-armed", cfg.PinArmed, "BCM pin for the armed lamp")
	fs.IntVar(&cfg.PinLaunchLamp, "pin-launch-lamp", cfg.PinLaunchLamp, "BCM pin for the launch lamp")
	fs.IntVar(&cfg.PinRelay, "pin-relay", cfg.PinRelay, "BCM pin for the ignition relay")
	fs.BoolVar(&cfg.RelayActiveLow, "relay-active-low", cfg.RelayActiveLow, "Relay module energises on a low input")
	fs.StringVar(&cfg.Buzzer, "buzzer", cfg.Buzzer, "Buzzer output: pwm, midi or none")
	fs.StringVar(&cfg.BuzzerPin, "buzzer-pin", cfg.BuzzerPin, "PWM pin name for the piezo")
	fs.StringVar(&cfg.MIDIPort, "midi-port", cfg.MIDIPort, "MIDI output name to match (empty picks the first)")
	fs.IntVar(&cfg.MIDIChannel, "midi-channel", cfg.MIDIChannel, "MIDI channel 0-15")
	fs.StringVar(&cfg.LCD, "lcd", cfg.LCD, "Serial device of the LCD backpack (empty to disable)")
	fs.IntVar(&cfg.LCDBaud, "lcd-baud", cfg.LCDBaud, "LCD backpack baud rate")
	fs.BoolVar(&cfg.Splash, "splash", cfg.Splash, "Show the splash banner instead of the self-check")
	fs.Var(uint32Value{&cfg.ClockOffset}, "clock-offset", "Start the millisecond clock at this value")
	fs.BoolVar(&cfg.PrintState, "print-state", false, "Print current switch state and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", c.Debounce)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat)
	}
	if c.Heartbeat.Milliseconds() > 1<<31 {
		return fmt.Errorf("heartbeat %v too long for the millisecond clock", c.Heartbeat)
	}
	switch c.Buzzer {
	case "pwm", "midi", "none":
	default:
		return fmt.Errorf("unknown buzzer %q (want pwm, midi or none)", c.Buzzer)
	}
	if c.MIDIChannel < 0 || c.MIDIChannel > 15 {
		return fmt.Errorf("midi channel %d out of range 0-15", c.MIDIChannel)
	}
	return nil
}

// uint32Value is a flag.Value for a uint32.
type uint32Value struct{ p *uint32 }

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return fmt.Sprint(*v.p)
}

func (v uint32Value) Set(s string) error {
	var n uint64
	if _, err := fmt.Sscan(s, &n); err != nil {
		return err
	}
	if n > 1<<32-1 {
		return fmt.Errorf("%s overflows uint32", s)
	}
	*v.p = uint32(n)
	return nil
}
