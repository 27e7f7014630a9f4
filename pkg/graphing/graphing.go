// Package graphing renders a collected series into an interactive HTML page.
package graphing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/pkg/errors"

	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

const minPanelHeight = 250

// Options controls the rendered page.
type Options struct {
	// Path is the HTML file to write.
	Path string
	// Width and Height are the plot area in pixels.
	Width  int
	Height int
	// White selects a light theme instead of the dark default.
	White bool
	// DataPath is shown in the page header.
	DataPath string
}

func (o Options) theme() string {
	if o.White {
		return types.ThemeWesteros
	}
	return types.ThemeChalk
}

// RunInfo is the header panel shown above the charts.
type RunInfo struct {
	Title       string
	DataPath    string
	Width       int
	AppVersion  string
	Interval    string
	Cores       int
	Samples     int
	Start       float64
	End         float64
	MemoryTotal uint64
	SwapTotal   uint64
	Processes   []ProcessInfo
	Extra       []ExtraInfo
}

// ProcessInfo names a tracked process slot.
type ProcessInfo struct {
	Index int
	Name  string
}

// ExtraInfo is a header key the reader kept without interpreting.
type ExtraInfo struct {
	Key   string
	Value string
}

// Render writes the CPU, memory and swap charts of s to o.Path. It reports
// false without writing anything when s has no rows.
func Render(s *metrics.CollectedSeries, o Options) (bool, error) {
	if s.Len() == 0 {
		logx.As().Info().Str("data_path", o.DataPath).Msg("Data file has no rows, nothing to plot")
		return false, nil
	}
	if o.Path == "" {
		return false, errors.New("plot path is required")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return false, errors.Errorf("plot size must be positive, got %dx%d", o.Width, o.Height)
	}

	html, err := renderPage(s, o)
	if err != nil {
		return false, err
	}

	if dir := filepath.Dir(o.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, errors.Wrapf(err, "failed to create plot directory %s", dir)
		}
	}
	if err := os.WriteFile(o.Path, html, 0o644); err != nil {
		return false, errors.Wrapf(err, "failed to write plot %s", o.Path)
	}

	logx.As().Info().
		Str("path", o.Path).
		Int("samples", s.Len()).
		Msg("Plot written")
	return true, nil
}

func renderPage(s *metrics.CollectedSeries, o Options) ([]byte, error) {
	info := newRunInfo(s, o)

	page := components.NewPage()
	page.PageTitle = info.Title

	labels := timeLabels(s.Timestamps)
	ps := panels(s)
	height := panelHeight(o.Height, len(ps))
	for _, p := range ps {
		page.AddCharts(createLineChart(s, p, labels, o, height))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to render charts")
	}

	var panelHTML, css bytes.Buffer
	if err := templates.ExecuteTemplate(&panelHTML, "run_info", info); err != nil {
		return nil, errors.Wrap(err, "failed to execute run info template")
	}
	if err := templates.ExecuteTemplate(&css, "styles", info); err != nil {
		return nil, errors.Wrap(err, "failed to execute styles template")
	}

	html := buf.String()
	html = strings.Replace(html, "<body>", "<body>\n"+panelHTML.String(), 1)
	html = strings.Replace(html, "</head>", css.String()+"</head>", 1)
	return []byte(html), nil
}

func newRunInfo(s *metrics.CollectedSeries, o Options) RunInfo {
	h := s.Header
	info := RunInfo{
		Title:       "System Usage",
		DataPath:    o.DataPath,
		Width:       o.Width,
		AppVersion:  h.AppVersion,
		Interval:    time.Duration(h.IntervalSeconds * float64(time.Second)).String(),
		Cores:       h.CPUCoreCount,
		Samples:     s.Len(),
		Start:       s.Timestamps[0],
		End:         s.Timestamps[s.Len()-1],
		MemoryTotal: h.MemoryTotal,
		SwapTotal:   h.SwapTotal,
	}
	if o.DataPath != "" {
		info.Title = fmt.Sprintf("System Usage - %s", filepath.Base(o.DataPath))
	}
	for _, idx := range h.CustomIndices() {
		info.Processes = append(info.Processes, ProcessInfo{Index: idx, Name: h.CustomNames[idx]})
	}

	keys := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		info.Extra = append(info.Extra, ExtraInfo{Key: k, Value: h.Extra[k]})
	}
	return info
}
