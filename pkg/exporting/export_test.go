package exporting

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HostSampler/pkg/metrics"
)

func exportSeries() *metrics.CollectedSeries {
	db := metrics.CustomCPU(0, "db")
	s := metrics.NewCollectedSeries(metrics.DataFileHeader{CPUCoreCount: 2, CustomNames: map[int]string{0: "db"}},
		[]metrics.MetricKind{metrics.CPUTotal, metrics.CPUPerCore, db})
	s.Timestamps = []float64{1, 2}
	s.Columns[metrics.CPUTotal] = []float64{10, 20}
	s.Columns[db] = []float64{-1, 4.5}
	s.Cores = [][]float64{{5, 15}, {15, 25}}
	return s
}

func TestSeriesColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"UNIX_TIMESTAMP", "CPU_USAGE_TOTAL", "CPU_CORE_0", "CPU_CORE_1", "CUSTOM_0_CPU"},
		SeriesColumns(exportSeries()))
}

func TestSeriesRecords(t *testing.T) {
	records := SeriesRecords(exportSeries())
	require.Len(t, records, 2)
	assert.Equal(t, Record{
		"UNIX_TIMESTAMP":  1.0,
		"CPU_USAGE_TOTAL": 10.0,
		"CPU_CORE_0":      5.0,
		"CPU_CORE_1":      15.0,
		"CUSTOM_0_CPU":    nil,
	}, records[0])
	assert.Equal(t, 4.5, records[1]["CUSTOM_0_CPU"])
}

func TestExportSeriesFormats(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, ok := Get(name)
			require.True(t, ok)
			path := ExportPath(filepath.Join(t.TempDir(), "data.csv"), f)

			require.NoError(t, ExportSeries(exportSeries(), path, name))

			records, err := LoadRecords(path)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, 2.0, records[1]["UNIX_TIMESTAMP"])
			assert.Equal(t, 25.0, records[1]["CPU_CORE_1"])
			assert.Equal(t, 4.5, records[1]["CUSTOM_0_CPU"])
			assert.Nil(t, records[0]["CUSTOM_0_CPU"])
		})
	}
}

func TestExportSeriesUnknownFormat(t *testing.T) {
	assert.Error(t, ExportSeries(exportSeries(), filepath.Join(t.TempDir(), "x.xml"), "xml"))
	assert.Equal(t, []string{"jsonl", "parquet", "tsv"}, Names())
}
