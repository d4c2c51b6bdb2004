package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/launch-controller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	State         string        `json:"state"`
	Locked        bool          `json:"locked"`
	RemainingMs   uint32        `json:"remaining_ms"`
	FaultReason   string        `json:"fault_reason,omitempty"`
	ClockMs       uint32        `json:"clock_ms"`
	Outputs       OutputsJSON   `json:"outputs"`
	Inputs        InputsJSON    `json:"inputs"`
	Display       []string      `json:"display"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
	History       []HistoryJSON `json:"history,omitempty"`
}

// OutputsJSON is the JSON representation of the discrete outputs.
type OutputsJSON struct {
	Ready      bool `json:"ready"`
	Armed      bool `json:"armed"`
	LaunchLamp bool `json:"launch_lamp"`
	Relay      bool `json:"relay"`
}

// InputsJSON is the JSON representation of the debounced controls.
type InputsJSON struct {
	Arm    bool `json:"arm"`
	Reset  bool `json:"reset"`
	Launch bool `json:"launch"`
	Fault  bool `json:"fault"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	Launches        int `json:"launches"`
	Aborts          int `json:"aborts"`
	Faults          int `json:"faults"`
	InterlockBreaks int `json:"interlock_breaks"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type   string `json:"type"`
	IP     string `json:"ip"`
	Status string `json:"status"`
	SSID   string `json:"ssid,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs         int64  `json:"poll_ms"`
	DebounceMs     int64  `json:"debounce_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Broker         string `json:"broker"`
	HTTPPort       string `json:"http_port"`
	Buzzer         string `json:"buzzer"`
	LCD            string `json:"lcd,omitempty"`
	Splash         bool   `json:"splash"`
	RelayActiveLow bool   `json:"relay_active_low"`
}

// HistoryJSON is one transition in the status history.
type HistoryJSON struct {
	Timestamp string `json:"timestamp"`
	ClockMs   uint32 `json:"clock_ms"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
}

func buildInner(snap Snapshot) StatusInner {
	ch := snap.Channels
	return StatusInner{
		State:       snap.State.String(),
		Locked:      snap.Locked,
		RemainingMs: snap.RemainingMs,
		FaultReason: snap.FaultReason,
		ClockMs:     snap.ClockMs,
		Outputs: OutputsJSON{
			Ready:      ch[logic.ChannelReady],
			Armed:      ch[logic.ChannelArmed],
			LaunchLamp: ch[logic.ChannelLaunchLamp],
			Relay:      ch[logic.ChannelRelay],
		},
		Inputs: InputsJSON{
			Arm:    snap.Inputs.Arm,
			Reset:  snap.Inputs.Reset,
			Launch: snap.Inputs.Launch,
			Fault:  snap.Inputs.Fault,
		},
		Display:       []string{snap.Display[0], snap.Display[1]},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Launches:        snap.Counts.Launches,
			Aborts:          snap.Counts.Aborts,
			Faults:          snap.Counts.Faults,
			InterlockBreaks: snap.Counts.InterlockBreaks,
		},
		Config: ConfigJSON{
			PollMs:         snap.Config.PollMs,
			DebounceMs:     snap.Config.DebounceMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Broker:         snap.Config.Broker,
			HTTPPort:       snap.Config.HTTPPort,
			Buzzer:         snap.Config.Buzzer,
			LCD:            snap.Config.LCD,
			Splash:         snap.Config.Splash,
			RelayActiveLow: snap.Config.RelayActiveLow,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:   snap.Network.Type,
			IP:     snap.Network.IP,
			Status: snap.Network.Status,
			SSID:   snap.Network.SSID,
		}
	}
}

func buildHistory(snap Snapshot, inner *StatusInner) {
	for _, h := range snap.History {
		inner.History = append(inner.History, HistoryJSON{
			Timestamp: h.Time.UTC().Format(time.RFC3339),
			ClockMs:   h.ClockMs,
			From:      h.From.String(),
			To:        h.To.String(),
			Reason:    h.Reason,
		})
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: webInner(snap)}, "", "  ")
	return data
}

// FormatCompact is FormatJSON without indentation, for websocket frames.
func FormatCompact(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: webInner(snap)})
	return data
}

func webInner(snap Snapshot) StatusInner {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	buildHistory(snap, &inner)
	return inner
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// History is left out to keep broker messages small.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
