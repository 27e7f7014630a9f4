//go:build unix

package profiling

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HostSampler/pkg/exporting"
	"HostSampler/pkg/metrics"
)

func TestSamplerLeavesRunningFileAlone(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.WriteFile(exporting.BackupPath(opts.Path, 1), []byte("older"), 0o644))

	running, err := exporting.NewDataWriter(opts.Path, metrics.DataFileHeader{IntervalSeconds: 1, AppVersion: "test"},
		[]metrics.MetricKind{metrics.CPUTotal}, exporting.WriterOptions{FlushEveryRow: true})
	require.NoError(t, err)
	defer running.Close()
	require.NoError(t, running.Write(metrics.Sample{Timestamp: 1700000000, Values: []float64{12.5}}))

	provider := &stubProvider{}
	stats, err := NewSampler(provider, opts).Run(context.Background())
	require.ErrorContains(t, err, "in use")
	assert.Zero(t, stats.Samples)

	// the running file and its backups are untouched
	series, err := exporting.LoadSeries(opts.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, series.Len())
	older, err := os.ReadFile(exporting.BackupPath(opts.Path, 1))
	require.NoError(t, err)
	assert.Equal(t, "older", string(older))
	assert.NoFileExists(t, exporting.BackupPath(opts.Path, 2))
}
