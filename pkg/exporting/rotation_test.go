package exporting

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "system_data__1.csv", BackupPath("system_data.csv", 1))
	assert.Equal(t, filepath.Join("out", "run__3.tar.gz"), BackupPath(filepath.Join("out", "run.tar.gz"), 3))
	assert.Equal(t, "samples__2", BackupPath("samples", 2))
	assert.Equal(t, ".samples__1", BackupPath(".samples", 1))
}

func countBackups(t *testing.T, path string, upTo int) int {
	t.Helper()
	n := 0
	for i := 1; i <= upTo; i++ {
		if fileExists(BackupPath(path, i)) {
			n++
		}
	}
	return n
}

func TestRotateBackupsKeepsBoundedRing(t *testing.T) {
	for _, keep := range []int{0, 1, 2, 5} {
		t.Run(strconv.Itoa(keep), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.csv")
			for run := 0; run <= keep; run++ {
				require.NoError(t, RotateBackups(path, keep))
				require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(run)), 0o644))
			}

			assert.True(t, fileExists(path))
			assert.Equal(t, keep, countBackups(t, path, keep+2))
			if keep > 0 {
				newest, err := os.ReadFile(BackupPath(path, 1))
				require.NoError(t, err)
				assert.Equal(t, strconv.Itoa(keep-1), string(newest))
			}
			live, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(keep), string(live))
		})
	}
}

func TestRotateBackupsDropsOldest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	for run := 0; run < 5; run++ {
		require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(run)), 0o644))
		require.NoError(t, RotateBackups(path, 2))
	}

	assert.False(t, fileExists(path))
	assert.Equal(t, 2, countBackups(t, path, 4))
	oldest, err := os.ReadFile(BackupPath(path, 2))
	require.NoError(t, err)
	assert.Equal(t, "3", string(oldest))
}

func TestRotateBackupsSkipsMissingGenerations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(BackupPath(path, 2), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("live"), 0o644))

	require.NoError(t, RotateBackups(path, 3))

	assert.False(t, fileExists(path))
	first, err := os.ReadFile(BackupPath(path, 1))
	require.NoError(t, err)
	assert.Equal(t, "live", string(first))
	third, err := os.ReadFile(BackupPath(path, 3))
	require.NoError(t, err)
	assert.Equal(t, "old", string(third))
	assert.False(t, fileExists(BackupPath(path, 2)))
}
