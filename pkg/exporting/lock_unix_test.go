//go:build unix

package exporting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HostSampler/pkg/metrics"
)

func TestDataWriterHoldsLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	header := metrics.DataFileHeader{IntervalSeconds: 1, AppVersion: "dev"}
	kinds := []metrics.MetricKind{metrics.CPUTotal}

	first, err := NewDataWriter(path, header, kinds, WriterOptions{})
	require.NoError(t, err)

	_, err = NewDataWriter(path, header, kinds, WriterOptions{})
	assert.ErrorContains(t, err, "in use")

	require.NoError(t, first.Close())
	second, err := NewDataWriter(path, header, kinds, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestDataWriterRotatesUnderLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	header := metrics.DataFileHeader{IntervalSeconds: 1, AppVersion: "dev"}
	kinds := []metrics.MetricKind{metrics.CPUTotal}
	opts := WriterOptions{Backups: 2}

	first, err := NewDataWriter(path, header, kinds, opts)
	require.NoError(t, err)

	// a contender must not rotate the open file away
	_, err = NewDataWriter(path, header, kinds, opts)
	require.ErrorContains(t, err, "in use")
	assert.FileExists(t, path)
	assert.NoFileExists(t, BackupPath(path, 1))

	require.NoError(t, first.Close())
	second, err := NewDataWriter(path, header, kinds, opts)
	require.NoError(t, err)
	require.NoError(t, second.Close())

	backup, err := os.ReadFile(BackupPath(path, 1))
	require.NoError(t, err)
	assert.Equal(t, EncodeHeader(header, kinds), string(backup))
	assert.FileExists(t, LockPath(path))
}
