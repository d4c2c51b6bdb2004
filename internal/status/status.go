// Package status provides a thread-safe status tracker for the launch controller.
// It is written by the control loop and read by HTTP and websocket handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/launch-controller/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type   string
	IP     string
	Status string
	SSID   string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs         int64
	DebounceMs     int64
	HeartbeatMs    int64
	Broker         string
	HTTPPort       string
	Buzzer         string
	LCD            string
	Splash         bool
	RelayActiveLow bool
}

// Inputs are the debounced control levels.
type Inputs struct {
	Arm    bool
	Reset  bool
	Launch bool
	Fault  bool
}

// Controller is the control loop's view of the state machine and panel.
type Controller struct {
	State       logic.State
	Locked      bool
	Channels    [logic.NumChannels]bool
	Inputs      Inputs
	RemainingMs uint32
	Display     [2]string
	FaultReason string
	Counts      logic.Counts
	ClockMs     uint32
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Controller
	History       []HistoryEntry
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	history *History
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		history: NewHistory(DefaultHistorySize),
	}
}

// Update replaces the controller view.
// Called from runLoop on every tick.
func (t *Tracker) Update(c Controller) {
	t.mu.Lock()
	t.snap.Controller = c
	t.mu.Unlock()
}

// Record appends a transition to the history.
func (t *Tracker) Record(at time.Time, e logic.Event) {
	t.history.Add(HistoryEntry{
		Time:    at,
		ClockMs: e.At,
		From:    e.From,
		To:      e.To,
		Reason:  e.Reason,
	})
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.History = t.history.Entries()
	s.Now = time.Now()
	return s
}
