package exporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"HostSampler/pkg/logx"
)

// BackupPath returns the name of backup generation n of path: "__n" is
// inserted before the extension, or appended when there is none.
func BackupPath(path string, n int) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// dotfile such as ".samples"
		stem, ext = base, ""
	}
	return dir + fmt.Sprintf("%s__%d%s", stem, n, ext)
}

// RotateBackups shifts existing generations of path one slot down, dropping
// generation keep, and moves the live file into generation 1. A missing
// generation is skipped, so an interrupted rotation can simply be rerun.
func RotateBackups(path string, keep int) error {
	if keep <= 0 {
		return nil
	}

	oldest := BackupPath(path, keep)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove oldest backup %s", oldest)
	}

	for i := keep; i >= 2; i-- {
		src := BackupPath(path, i-1)
		if !fileExists(src) {
			continue
		}
		dst := BackupPath(path, i)
		if err := os.Rename(src, dst); err != nil {
			return errors.Wrapf(err, "failed to rename backup %s to %s", src, dst)
		}
		logx.As().Trace().Str("from", src).Str("to", dst).Msg("Shifted backup")
	}

	if !fileExists(path) {
		return nil
	}
	first := BackupPath(path, 1)
	if err := os.Rename(path, first); err != nil {
		return errors.Wrapf(err, "failed to rename data file %s to %s", path, first)
	}
	logx.As().Debug().Str("path", path).Str("backup", first).Msg("Rotated data file")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
