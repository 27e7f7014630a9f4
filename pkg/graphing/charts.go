package graphing

import (
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"HostSampler/pkg/metrics"
)

// panel is one chart of the page: the kinds it plots and its y axis range.
type panel struct {
	title string
	unit  string
	kinds []metrics.MetricKind
	// perCore adds one series per core from CollectedSeries.Cores.
	perCore bool
	max     float64
}

// panels groups the recorded kinds into the CPU, memory and swap charts.
// Panels with nothing to plot are left out.
func panels(s *metrics.CollectedSeries) []panel {
	var out []panel

	if s.HasCPU {
		p := panel{title: "CPU", unit: "%", max: 100}
		for _, k := range s.KindsWhere(metrics.MetricKind.IsCPU) {
			if k.Kind == metrics.KindCPUPerCore {
				p.perCore = len(s.Cores) > 0
				continue
			}
			p.kinds = append(p.kinds, k)
		}
		out = append(out, p)
	}
	if s.HasMemory {
		out = append(out, panel{
			title: "Memory",
			unit:  "MB",
			kinds: s.KindsWhere(metrics.MetricKind.IsMemory),
			max:   float64(s.Header.MemoryTotal),
		})
	}
	if s.HasSwap {
		out = append(out, panel{
			title: "Swap",
			unit:  "MB",
			kinds: s.KindsWhere(metrics.MetricKind.IsSwap),
			max:   float64(s.Header.SwapTotal),
		})
	}
	return out
}

// timeLabels formats the sample timestamps for the category axis.
func timeLabels(timestamps []float64) []string {
	labels := make([]string, len(timestamps))
	for i, ts := range timestamps {
		labels[i] = time.Unix(0, int64(ts*float64(time.Second))).Format("15:04:05.00")
	}
	return labels
}

// lineData converts a column to chart points. Custom process columns use -1
// for samples where the process was not bound; those become gaps.
func lineData(values []float64, custom bool) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if custom && v < 0 {
			data[i] = opts.LineData{Value: nil}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// createLineChart builds the chart of one panel.
func createLineChart(s *metrics.CollectedSeries, p panel, labels []string, o Options, height int) *charts.Line {
	line := charts.NewLine()

	yAxis := opts.YAxis{
		Type: "value",
		Name: p.unit,
		Min:  0,
	}
	if p.max > 0 {
		yAxis.Max = p.max
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  o.theme(),
			Width:  fmt.Sprintf("%dpx", o.Width),
			Height: fmt.Sprintf("%dpx", height),
		}),
		charts.WithTitleOpts(opts.Title{Title: p.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(yAxis),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	line.SetXAxis(labels)
	for _, k := range p.kinds {
		line.AddSeries(k.Label(), lineData(s.Column(k), k.IsCustom()))
	}
	if p.perCore {
		for i, core := range s.Cores {
			line.AddSeries(fmt.Sprintf("Core %d", i), lineData(core, false))
		}
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	return line
}

// panelHeight splits the page height across n panels.
func panelHeight(height, n int) int {
	if n < 1 {
		n = 1
	}
	if h := height / n; h > minPanelHeight {
		return h
	}
	return minPanelHeight
}
