package archiving

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"HostSampler/pkg/config"
	"HostSampler/pkg/logx"
)

const localDirMode = 0o755

type localDirStorage struct {
	dirConfig config.LocalDirConfig
}

// NewLocalDir returns a storage that copies files below cfg.Path.
func NewLocalDir(cfg config.LocalDirConfig) Storage {
	return &localDirStorage{dirConfig: cfg}
}

func (d *localDirStorage) Type() string { return TypeLocalDir }

// Prepare creates the archive root.
func (d *localDirStorage) Prepare(ctx context.Context) error {
	if _, exists := pathExists(d.dirConfig.Path); exists {
		return nil
	}
	logx.As().Info().
		Str("storage_type", d.Type()).
		Str("path", d.dirConfig.Path).
		Msg("Directory does not exist, creating it")
	if err := os.MkdirAll(d.dirConfig.Path, localDirMode); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", d.dirConfig.Path)
	}
	return nil
}

// Store copies src unless an identical file is already in place.
func (d *localDirStorage) Store(ctx context.Context, src, object string) (*ArchiveInfo, error) {
	info, exists := pathExists(src)
	if !exists {
		return nil, errors.Errorf("source file %s does not exist", src)
	}
	localChecksum, err := fileMD5(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to calculate local checksum")
	}

	destPath := filepath.Join(d.dirConfig.Path, filepath.FromSlash(object))
	if _, exists := pathExists(destPath); exists {
		remoteChecksum, err := fileMD5(destPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to calculate archived checksum")
		}
		if remoteChecksum == localChecksum {
			logx.As().Info().
				Str("src", src).
				Str("dest", destPath).
				Str("md5", remoteChecksum).
				Str("storage_type", d.Type()).
				Msg("File already archived, skipping copy")
			return prepareArchiveInfo(src, destPath, localChecksum, info, true), nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), localDirMode); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory %s", filepath.Dir(destPath))
	}
	if err := copyFile(src, destPath, info.Mode().Perm()); err != nil {
		return nil, errors.Wrapf(err, "failed to copy %s to %s", src, destPath)
	}

	logx.As().Info().
		Str("src", src).
		Str("dest", destPath).
		Str("checksum", localChecksum).
		Str("storage_type", d.Type()).
		Msg("File copied to the archive directory")
	return prepareArchiveInfo(src, destPath, localChecksum, info, false), nil
}

func prepareArchiveInfo(src, dest, checksum string, info os.FileInfo, skipped bool) *ArchiveInfo {
	return &ArchiveInfo{
		Src:          src,
		Dest:         dest,
		ChecksumType: "md5",
		Checksum:     checksum,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Skipped:      skipped,
	}
}
