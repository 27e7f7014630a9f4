package graphing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HostSampler/pkg/metrics"
)

func testSeries() *metrics.CollectedSeries {
	header := metrics.DataFileHeader{
		IntervalSeconds: 0.5,
		CPUCoreCount:    2,
		MemoryTotal:     16384,
		SwapTotal:       2048,
		AppVersion:      "1.2.3",
		CustomNames:     map[int]string{0: "db"},
		Extra:           map[string]string{"HOST": "node-1"},
	}
	kinds := []metrics.MetricKind{
		metrics.CPUTotal, metrics.CPUPerCore, metrics.MemoryUsed, metrics.SwapUsed,
		metrics.CustomCPU(0, "db"), metrics.CustomMemory(0, "db"),
	}
	s := metrics.NewCollectedSeries(header, kinds)
	s.Timestamps = []float64{1700000000, 1700000000.5, 1700000001}
	s.Columns[metrics.CPUTotal] = []float64{10, 20, 30}
	s.Columns[metrics.MemoryUsed] = []float64{4000, 4100, 4200}
	s.Columns[metrics.SwapUsed] = []float64{0, 1, 2}
	s.Columns[metrics.CustomCPU(0, "db")] = []float64{-1, 5, 6}
	s.Columns[metrics.CustomMemory(0, "db")] = []float64{-1, 120, 121}
	s.Cores = [][]float64{{5, 15, 25}, {15, 25, 35}}
	return s
}

func TestPanels(t *testing.T) {
	ps := panels(testSeries())
	require.Len(t, ps, 3)

	assert.Equal(t, "CPU", ps[0].title)
	assert.Equal(t, 100.0, ps[0].max)
	assert.True(t, ps[0].perCore)
	assert.Equal(t, []metrics.MetricKind{metrics.CPUTotal, metrics.CustomCPU(0, "db")}, ps[0].kinds)

	assert.Equal(t, "Memory", ps[1].title)
	assert.Equal(t, 16384.0, ps[1].max)
	assert.Equal(t, []metrics.MetricKind{metrics.MemoryUsed, metrics.CustomMemory(0, "db")}, ps[1].kinds)

	assert.Equal(t, "Swap", ps[2].title)
	assert.Equal(t, 2048.0, ps[2].max)
}

func TestPanelsSkipsUnrecorded(t *testing.T) {
	s := metrics.NewCollectedSeries(metrics.DataFileHeader{}, []metrics.MetricKind{metrics.MemoryFree})
	ps := panels(s)
	require.Len(t, ps, 1)
	assert.Equal(t, "Memory", ps[0].title)
}

func TestLineDataGaps(t *testing.T) {
	data := lineData([]float64{-1, 2.5}, true)
	assert.Equal(t, []opts.LineData{{Value: nil}, {Value: 2.5}}, data)

	data = lineData([]float64{-1}, false)
	assert.Equal(t, []opts.LineData{{Value: -1.0}}, data)
}

func TestPanelHeight(t *testing.T) {
	assert.Equal(t, 400, panelHeight(800, 2))
	assert.Equal(t, minPanelHeight, panelHeight(600, 3))
	assert.Equal(t, 800, panelHeight(800, 0))
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "run.html")
	written, err := Render(testSeries(), Options{Path: path, Width: 1200, Height: 900, DataPath: "/data/run.csv"})
	require.NoError(t, err)
	require.True(t, written)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(raw)

	assert.Contains(t, html, "System Usage - run.csv")
	assert.Contains(t, html, "run-info-container")
	assert.Contains(t, html, "1.2.3")
	assert.Contains(t, html, "node-1")
	assert.Contains(t, html, "16.00 GB")
	assert.Contains(t, html, "500ms")
	assert.Contains(t, html, "chalk")
	assert.Less(t, strings.Index(html, ".run-info-container {"), strings.Index(html, "</head>"))
}

func TestRenderWhiteTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.html")
	_, err := Render(testSeries(), Options{Path: path, Width: 800, Height: 600, White: true})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "westeros")
}

func TestRenderEmptySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.html")
	s := metrics.NewCollectedSeries(metrics.DataFileHeader{}, []metrics.MetricKind{metrics.CPUTotal})

	written, err := Render(s, Options{Path: path, Width: 800, Height: 600})
	require.NoError(t, err)
	assert.False(t, written)
	assert.NoFileExists(t, path)
}

func TestRenderRejectsBadSize(t *testing.T) {
	_, err := Render(testSeries(), Options{Path: filepath.Join(t.TempDir(), "x.html"), Width: 0, Height: 600})
	assert.Error(t, err)
}

func TestOpenCommand(t *testing.T) {
	name, args := openCommand("linux", "/tmp/p.html")
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{"/tmp/p.html"}, args)

	name, _ = openCommand("darwin", "/tmp/p.html")
	assert.Equal(t, "open", name)

	name, args = openCommand("windows", `C:\p.html`)
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", `C:\p.html`}, args)
}
