package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/launch-controller/internal/logic"
	"github.com/sweeney/launch-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"seconds": func(ms uint32) string {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	},
}).Parse(indexHTML))

// level is one named on/off line for the page.
type level struct {
	ID   string
	Name string
	On   bool
}

type page struct {
	status.Snapshot
	Outputs []level
	Inputs  []level
}

func newPage(snap status.Snapshot) page {
	ch := snap.Channels
	return page{
		Snapshot: snap,
		Outputs: []level{
			{"out-ready", "Ready lamp", ch[logic.ChannelReady]},
			{"out-armed", "Armed lamp", ch[logic.ChannelArmed]},
			{"out-launch_lamp", "Launch lamp", ch[logic.ChannelLaunchLamp]},
			{"out-relay", "Ignition relay", ch[logic.ChannelRelay]},
		},
		Inputs: []level{
			{"in-arm", "ARM", snap.Inputs.Arm},
			{"in-reset", "RESET", snap.Inputs.Reset},
			{"in-launch", "LAUNCH", snap.Inputs.Launch},
			{"in-fault", "Fault line", snap.Inputs.Fault},
		},
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Launch Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.fault { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.lcd { background: #1d3b1d; color: #9f9; padding: 6px 10px; white-space: pre; display: inline-block; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Launch Controller<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state" class="{{if eq .State.String "FAULT"}}fault{{end}}">{{.State}}</td></tr>
<tr><th>System</th><td id="locked">{{if .Locked}}locked{{else}}unlocked{{end}}</td></tr>
<tr><th>Remaining</th><td id="remaining">{{seconds .RemainingMs}}</td></tr>
<tr><th>Fault</th><td id="fault-reason" class="fault">{{.FaultReason}}</td></tr>
</table>
<div class="lcd" id="lcd">{{index .Display 0 | printf "%-16s"}}
{{index .Display 1 | printf "%-16s"}}</div>

<h2>Outputs</h2>
<table>
{{range .Outputs}}<tr><th>{{.Name}}</th><td id="{{.ID}}" class="{{if .On}}on{{else}}off{{end}}">{{if .On}}ON{{else}}OFF{{end}}</td></tr>
{{end}}</table>

<h2>Controls</h2>
<table>
{{range .Inputs}}<tr><th>{{.Name}}</th><td id="{{.ID}}" class="{{if .On}}on{{else}}off{{end}}">{{if .On}}ON{{else}}OFF{{end}}</td></tr>
{{end}}</table>

<h2>Counts</h2>
<table>
<tr><th>Launches</th><td id="count-launches">{{.Counts.Launches}}</td></tr>
<tr><th>Aborts</th><td id="count-aborts">{{.Counts.Aborts}}</td></tr>
<tr><th>Faults</th><td id="count-faults">{{.Counts.Faults}}</td></tr>
<tr><th>Interlock breaks</th><td id="count-interlock_breaks">{{.Counts.InterlockBreaks}}</td></tr>
</table>

<h2>Recent transitions</h2>
<table id="history">
{{range .History}}<tr><td>{{.Time.UTC.Format "15:04:05"}}</td><td>{{.From}} &rarr; {{.To}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Buzzer</th><td>{{.Config.Buzzer}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) { dot.className = "live-dot " + cls; dot.title = title; }
  function setLevel(id, on) {
    var el = document.getElementById(id);
    if (!el) return;
    el.textContent = on ? "ON" : "OFF";
    el.className = on ? "on" : "off";
  }
  function pad(s) { s = s || ""; while (s.length < 16) s += " "; return s; }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() { setDot("err", "offline"); setTimeout(connect, 5000); };
    ws.onmessage = function(ev) {
      var s;
      try { s = JSON.parse(ev.data).status; } catch (e) { return; }
      var st = document.getElementById("state");
      st.textContent = s.state;
      st.className = s.state === "FAULT" ? "fault" : "";
      document.getElementById("locked").textContent = s.locked ? "locked" : "unlocked";
      document.getElementById("remaining").textContent = (s.remaining_ms / 1000).toFixed(1) + "s";
      document.getElementById("fault-reason").textContent = s.fault_reason || "";
      document.getElementById("lcd").textContent = pad(s.display[0]) + "\n" + pad(s.display[1]);
      for (var k in s.outputs) setLevel("out-" + k, s.outputs[k]);
      for (var k in s.inputs) setLevel("in-" + k, s.inputs[k]);
      for (var k in s.counts) {
        var el = document.getElementById("count-" + k);
        if (el) el.textContent = s.counts[k];
      }
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	indexTmpl.Execute(w, newPage(snap))
}
