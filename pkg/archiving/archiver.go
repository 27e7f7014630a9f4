// Package archiving copies the files of a finished run to an S3 compatible
// bucket and/or a local directory.
package archiving

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"HostSampler/pkg/config"
	"HostSampler/pkg/logx"
)

// Storage types.
const (
	TypeS3       = "s3"
	TypeLocalDir = "localdir"
)

// ArchiveInfo describes one archived file.
type ArchiveInfo struct {
	Src          string
	Dest         string
	ChecksumType string
	Checksum     string
	Size         int64
	LastModified time.Time
	// Skipped is set when an identical copy already existed.
	Skipped bool
}

// Storage is an archive destination. object is a slash separated name
// relative to the storage root.
type Storage interface {
	Type() string
	Prepare(ctx context.Context) error
	Store(ctx context.Context, src, object string) (*ArchiveInfo, error)
}

// Archiver stores run files under {prefix}/{hostname}/{runID}/{file} in every
// configured storage.
type Archiver struct {
	storages []Storage
	hostname string
	runID    string
}

// New builds the storages enabled in cfg.
func New(cfg config.ArchiveConfig, runID string) (*Archiver, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read hostname")
	}

	var storages []Storage
	if cfg.S3.Enabled {
		s, err := NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		storages = append(storages, s)
	}
	if cfg.LocalDir.Enabled {
		storages = append(storages, NewLocalDir(cfg.LocalDir))
	}
	return NewWithStorages(hostname, runID, storages...), nil
}

// NewWithStorages returns an archiver over the given storages.
func NewWithStorages(hostname, runID string, storages ...Storage) *Archiver {
	return &Archiver{storages: storages, hostname: hostname, runID: runID}
}

// ObjectName returns the archive name of file for this run.
func (a *Archiver) ObjectName(file string) string {
	return path.Join(a.hostname, a.runID, filepath.Base(file))
}

// Archive stores every file in every storage. A failing storage does not stop
// the others; the first error is returned.
func (a *Archiver) Archive(ctx context.Context, files ...string) ([]*ArchiveInfo, error) {
	var (
		infos    []*ArchiveInfo
		firstErr error
	)
	for _, s := range a.storages {
		if err := s.Prepare(ctx); err != nil {
			logx.As().Error().Str("storage_type", s.Type()).Err(err).Msg("Failed to prepare archive storage")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return infos, err
			}
			info, err := s.Store(ctx, file, a.ObjectName(file))
			if err != nil {
				logx.As().Error().
					Str("storage_type", s.Type()).
					Str("src", file).
					Err(err).
					Msg("Failed to archive file")
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			infos = append(infos, info)
		}
	}

	logx.As().Info().
		Str("run_id", a.runID).
		Int("storages", len(a.storages)).
		Int("archived", len(infos)).
		Msg("Archive finished")
	return infos, firstErr
}
