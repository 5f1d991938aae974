package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/nothatDinger/qwen-code-trace/internal/timeline"
)

const ganttTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Trace timeline</title>
<style>
body{background:#0d1117;color:#c9d1d9;font-family:monospace;font-size:12px;margin:16px}
.meta{color:#8b949e;margin-bottom:10px}
.chart{position:relative;background:#161b22;border:1px solid #30363d;border-radius:6px;width:{{printf "%.0f" .Geometry.Width}}px;height:{{printf "%.0f" .Geometry.Height}}px}
.bar{position:absolute;border-radius:2px;opacity:.9}
.bar:hover{opacity:1}
.lbl{position:absolute;left:4px;white-space:nowrap;overflow:hidden;text-overflow:ellipsis;max-width:95%;line-height:1;color:#0d1117;font-size:10px;top:50%;transform:translateY(-50%)}
.empty{color:#8b949e;padding:24px}
</style>
</head>
<body>
<div class="meta">{{.BarCount}} records · total {{.TotalDuration}}{{if .HasStart}} · start {{.StartLabel}}{{end}}</div>
<div class="chart">
{{- if not .Geometry.Bars}}
<div class="empty">No records.</div>
{{- end}}
{{- range .Geometry.Bars}}
<div class="bar" title="{{.Label}}" style="left:{{printf "%.1f" .X}}px;top:{{printf "%.1f" .Y}}px;width:{{printf "%.1f" .Width}}px;height:{{printf "%.1f" .Height}}px;background:{{.Color}}"><span class="lbl">{{.Label}}</span></div>
{{- end}}
</div>
</body>
</html>
`

var ganttTmpl = template.Must(template.New("gantt").Parse(ganttTemplate))

type htmlData struct {
	Geometry      Geometry
	BarCount      int
	TotalDuration string
	HasStart      bool
	StartLabel    string
}

func renderHTML(tl timeline.Timeline, g Geometry) ([]byte, error) {
	data := htmlData{
		Geometry:      g,
		BarCount:      len(g.Bars),
		TotalDuration: formatDuration(tl.TotalDuration),
		HasStart:      !tl.Start.IsZero(),
	}
	if data.HasStart {
		data.StartLabel = tl.Start.UTC().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	if err := ganttTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering gantt html: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}
