package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
	"github.com/sweeney/smart-clock/internal/status"
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
	"editing": func(m logic.ConfigMode) bool { return m != logic.ModeNormal },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Smart Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.notice { color: red; font-weight: bold; }
.swatch { display: inline-block; width: 1em; height: 1em; border: 1px solid #888; vertical-align: middle; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Smart Clock<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Now</h2>
<table>
<tr><th>Time</th><td id="clock">{{if .Synced}}{{.WallTime.UTC.Format "2006-01-02T15:04:05Z"}}{{else}}<span class="unknown">time unknown</span>{{end}}</td></tr>
<tr><th>Temperature</th><td id="temperature">{{if .HaveSample}}{{.Sample.Temperature}}{{else}}<span class="unknown">--.-C</span>{{end}}</td></tr>
<tr><th>LED</th><td><span id="swatch" class="swatch" style="background: {{.Color.Hex}}"></span> <span id="color">{{.Color.Hex}}</span></td></tr>
<tr><th>Comfort range</th><td id="range">{{.Thresholds.Min}} – {{.Thresholds.Max}}</td></tr>
<tr><th>Mode</th><td id="mode">{{.Edit.Mode}}{{if editing .Edit.Mode}} ({{.Edit.Candidate}}){{end}}</td></tr>
{{if .Notice}}<tr><th>Notice</th><td class="notice">{{.Notice}}</td></tr>{{end}}
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}}</td></tr>{{end}}
</table>

<h2>Telemetry</h2>
<table>
<tr><th>Transport</th><td>{{.Config.Telemetry}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
<tr><th>Sent</th><td>{{.Counts.TelemetrySent}}</td></tr>
<tr><th>Failed</th><td>{{.Counts.TelemetryFailed}}</td></tr>
<tr><th>Dropped</th><td>{{.Counts.TelemetryDropped}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Sensor reads</th><td>{{.Counts.SensorReads}}</td></tr>
<tr><th>Sensor failures</th><td>{{.Counts.SensorFailures}}</td></tr>
<tr><th>Button presses</th><td>{{.Counts.ButtonPresses}}</td></tr>
<tr><th>Bounces ignored</th><td>{{.Counts.ButtonBounces}}</td></tr>
<tr><th>Saves</th><td>{{.Counts.Saves}}</td></tr>
<tr><th>Save failures</th><td>{{.Counts.SaveFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Telemetry interval</th><td>{{if eq .Config.TelemetryMs 0}}disabled{{else}}{{.Config.TelemetryMs}}ms{{end}}</td></tr>
<tr><th>Time source</th><td>{{.Config.TimeSource}}</td></tr>
<tr><th>Display</th><td>{{.Config.Display}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) { dot.className = "live-dot " + cls; dot.title = title; }
  function text(id, v) { document.getElementById(id).textContent = v; }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() { setDot("err", "offline"); setTimeout(connect, 5000); };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).data.status;
        text("clock", s.clock.synced ? s.clock.datetime : "time unknown");
        text("temperature", s.temperature === null ? "--.-C" : s.temperature.toFixed(1) + "C");
        text("color", s.color);
        document.getElementById("swatch").style.background = s.color;
        text("range", s.thresholds.min.toFixed(1) + "C – " + s.thresholds.max.toFixed(1) + "C");
        text("mode", s.mode + (s.candidate !== undefined ? " (" + s.candidate.toFixed(1) + "C)" : ""));
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
