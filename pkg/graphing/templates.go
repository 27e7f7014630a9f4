package graphing

import (
	"fmt"
	"html/template"
	"time"
)

// HTML fragments injected into the rendered chart page.
var templates = template.Must(template.New("").Funcs(templateFuncs).Parse(`
{{define "styles"}}
<style>
.run-info-container {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
    margin: 20px auto;
    max-width: {{.Width}}px;
}
.run-info-header {
    border-bottom: 2px solid #888;
    padding-bottom: 10px;
    margin-bottom: 15px;
}
.run-info-header h1 {
    margin: 0;
    font-size: 18px;
}
.data-path {
    font-size: 11px;
    color: #888;
    font-family: monospace;
}
.info-section {
    display: inline-block;
    vertical-align: top;
    min-width: 300px;
    margin: 0 15px 15px 0;
    padding: 15px;
    border: 1px solid #888;
}
.info-section h3 {
    margin: 0 0 10px 0;
    font-size: 13px;
}
.info-table {
    border-collapse: collapse;
    font-size: 12px;
}
.info-table td {
    padding: 3px 8px;
}
.info-table td:first-child {
    width: 150px;
    color: #888;
}
.info-table td:last-child {
    font-family: monospace;
}
</style>
{{end}}

{{define "run_info"}}
<div class="run-info-container">
    <div class="run-info-header">
        <h1>{{.Title}}</h1>
        <div class="data-path">{{.DataPath}}</div>
    </div>

    {{template "run_section" .}}
    {{template "memory_section" .}}
    {{template "process_section" .}}
    {{template "extra_section" .}}
</div>
{{end}}

{{define "run_section"}}
<div class="info-section">
    <h3>Run</h3>
    <table class="info-table">
        {{template "row" dict "Label" "Version" "Value" .AppVersion}}
        {{template "row" dict "Label" "Interval" "Value" .Interval}}
        {{template "row" dict "Label" "CPU Cores" "Value" .Cores}}
        {{template "row" dict "Label" "Samples" "Value" .Samples}}
        {{template "row" dict "Label" "Start" "Value" (.Start | formatTime)}}
        {{template "row" dict "Label" "End" "Value" (.End | formatTime)}}
    </table>
</div>
{{end}}

{{define "memory_section"}}
<div class="info-section">
    <h3>Memory</h3>
    <table class="info-table">
        {{template "row_mb" dict "Label" "Total" "Value" .MemoryTotal}}
        {{template "row_mb" dict "Label" "Swap" "Value" .SwapTotal}}
    </table>
</div>
{{end}}

{{define "process_section"}}
{{if .Processes}}
<div class="info-section">
    <h3>Tracked Processes</h3>
    <table class="info-table">
        {{range .Processes}}
        <tr><td>{{.Index}}</td><td>{{.Name}}</td></tr>
        {{end}}
    </table>
</div>
{{end}}
{{end}}

{{define "extra_section"}}
{{if .Extra}}
<div class="info-section">
    <h3>Other</h3>
    <table class="info-table">
        {{range .Extra}}
        {{template "row" dict "Label" .Key "Value" .Value}}
        {{end}}
    </table>
</div>
{{end}}
{{end}}

{{define "row"}}
{{if and .Value (ne (printf "%v" .Value) "") (ne (printf "%v" .Value) "0")}}
<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}
{{end}}

{{define "row_mb"}}
{{if .Value}}
<tr><td>{{.Label}}</td><td>{{.Value | formatMegaBytes}}</td></tr>
{{end}}
{{end}}
`))

var templateFuncs = template.FuncMap{
	"dict":            dictFunc,
	"formatMegaBytes": formatMegaBytesFunc,
	"formatTime":      formatTimeFunc,
}

// dictFunc creates a map from key-value pairs for template use.
func dictFunc(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	dict := make(map[string]interface{}, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		dict[key] = values[i+1]
	}
	return dict
}

// formatMegaBytesFunc formats a megabyte count into human-readable form.
func formatMegaBytesFunc(mb uint64) string {
	v := float64(mb)
	units := []string{"MB", "GB", "TB"}
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

func formatTimeFunc(ts float64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(0, int64(ts*float64(time.Second))).Format("2006-01-02 15:04:05")
}
