package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/dcfclock/internal/status"
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
	"orNever": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>DCF Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.face { font-size: 2.4em; letter-spacing: 0.2em; white-space: pre; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DCF Clock</h1>

<p id="face" class="face">{{.Face}}</p>

<h2>Clock</h2>
<table>
<tr><th>Time</th><td id="clock">{{.Clock}}</td></tr>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>Synced</th><td class="{{if .Synced}}on{{else}}off{{end}}">{{if .Synced}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Radio</h2>
<table>
<tr><th>Decoder</th><td id="dcf-state">{{.DCF.State}}</td></tr>
<tr><th>Carrier</th><td class="{{if .DCF.Carrier}}on{{else}}off{{end}}">{{if .DCF.Carrier}}pulse{{else}}gap{{end}}</td></tr>
<tr><th>Frames synced</th><td>{{.DCF.Synced}}</td></tr>
<tr><th>Frames rejected</th><td>{{.DCF.Rejected}}</td></tr>
<tr><th>Last sync</th><td>{{orNever .DCF.LastSync}}</td></tr>
{{if .DCF.LastRadio}}<tr><th>Last radio time</th><td>{{.DCF.LastRadio}}</td></tr>{{end}}
{{if .DCF.LastError}}<tr><th>Last error</th><td>{{.DCF.LastError}}</td></tr>{{end}}
</table>

<h2>Buttons</h2>
<table>
<tr><th>Mode</th><td>{{.Buttons.Mode}}</td></tr>
<tr><th>Up</th><td>{{.Buttons.Up}}</td></tr>
<tr><th>Down</th><td>{{.Buttons.Down}}</td></tr>
</table>

<h2>Tasks</h2>
<table>
{{range .Tasks}}<tr><th>{{.Name}}</th><td>{{.Overruns}} overruns</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Timebase</th><td>{{.Config.Timebase}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}}{{if .Config.ActiveLow}} (active low){{end}}</td></tr>
<tr><th>Display</th><td>{{.Config.Display}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// The template wants Uptime and Synced as fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Synced bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Synced:   snap.Synced(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
