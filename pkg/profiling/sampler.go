// Package profiling runs the sampling loop that feeds the data file.
package profiling

import (
	"context"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"

	"HostSampler/pkg/collecting"
	"HostSampler/pkg/exporting"
	"HostSampler/pkg/logx"
	"HostSampler/pkg/metrics"
)

const progressEvery = 100

// Options configures a sampling run.
type Options struct {
	Interval time.Duration
	// Kinds are the selected columns in file order.
	Kinds         []metrics.MetricKind
	Specs         []collecting.Spec
	Path          string
	Backups       int
	MaxSize       datasize.ByteSize
	FlushEveryRow bool
	AppVersion    string
}

// RunStats summarises a finished run.
type RunStats struct {
	Samples      int
	Duration     time.Duration
	BytesWritten uint64
}

// Sampler ticks on a fixed interval and appends one row per tick.
type Sampler struct {
	provider collecting.SystemProvider
	opts     Options
	tracker  *collecting.Tracker
	cache    *collecting.ProcessCache
	withSwap bool
}

// NewSampler creates a sampler reading from provider.
func NewSampler(provider collecting.SystemProvider, opts Options) *Sampler {
	self := int32(os.Getpid())
	return &Sampler{
		provider: provider,
		opts:     opts,
		tracker:  collecting.NewTracker(provider, opts.Specs, self),
		cache:    collecting.NewProcessCache(len(opts.Specs), self),
		withSwap: metrics.NeedsSwap(opts.Kinds),
	}
}

// Run opens the data file, rotating old data files under its lock, and
// samples until ctx is cancelled or the size cap is reached. Cancellation is
// checked once per tick, right after the row is written, so a stop takes up
// to one interval.
// Reaching the cap returns exporting.ErrSizeExceeded with valid stats.
func (s *Sampler) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats
	if s.opts.Interval <= 0 {
		return stats, errors.Errorf("invalid sample interval %s", s.opts.Interval)
	}

	// baseline for CPU deltas, not written
	if err := s.refresh(true); err != nil {
		return stats, err
	}

	writer, err := exporting.NewDataWriter(s.opts.Path, s.header(), s.opts.Kinds, exporting.WriterOptions{
		FlushEveryRow: s.opts.FlushEveryRow,
		MaxSize:       s.opts.MaxSize,
		Backups:       s.opts.Backups,
	})
	if err != nil {
		return stats, err
	}
	defer writer.Close()

	logx.As().Info().
		Str("path", s.opts.Path).
		Dur("interval", s.opts.Interval).
		Int("columns", len(s.opts.Kinds)).
		Int("processes", len(s.opts.Specs)).
		Msg("Started collecting data")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	start := time.Now()
	finish := func() RunStats {
		stats.Samples = writer.Rows()
		stats.Duration = time.Since(start)
		stats.BytesWritten = writer.BytesWritten()
		return stats
	}

	for {
		now := <-ticker.C

		if err := s.refresh(s.withSwap); err != nil {
			return finish(), err
		}
		err := writer.Write(s.sample(now))
		if errors.Is(err, exporting.ErrSizeExceeded) {
			logx.As().Warn().
				Str("path", s.opts.Path).
				Str("limit", s.opts.MaxSize.HumanReadable()).
				Msg("Data file size limit reached, stopping")
			if closeErr := writer.Close(); closeErr != nil {
				return finish(), closeErr
			}
			return finish(), err
		}
		if err != nil {
			return finish(), err
		}

		if n := writer.Rows(); n%progressEvery == 0 {
			logx.As().Debug().Int("samples", n).Msg("Progress")
		}

		select {
		case <-ctx.Done():
			if err := writer.Close(); err != nil {
				return finish(), err
			}
			stats = finish()
			logx.As().Info().
				Int("samples", stats.Samples).
				Dur("elapsed", stats.Duration).
				Str("size", datasize.ByteSize(stats.BytesWritten).HumanReadable()).
				Msg("Stopped collecting data")
			return stats, nil
		default:
		}
	}
}

func (s *Sampler) refresh(withSwap bool) error {
	if err := s.provider.RefreshCPU(); err != nil {
		return err
	}
	if err := s.provider.RefreshMemory(withSwap); err != nil {
		return err
	}
	return errors.Wrap(s.tracker.Update(s.cache), "failed to update tracked processes")
}

func (s *Sampler) header() metrics.DataFileHeader {
	mem := s.provider.Memory()
	h := metrics.DataFileHeader{
		IntervalSeconds: s.opts.Interval.Seconds(),
		CPUCoreCount:    s.provider.CoreCount(),
		MemoryTotal:     collecting.BytesToMegaBytes(mem.Total),
		SwapTotal:       collecting.BytesToMegaBytes(mem.SwapTotal),
		AppVersion:      s.opts.AppVersion,
	}
	if specs := s.tracker.Specs(); len(specs) > 0 {
		h.CustomNames = make(map[int]string, len(specs))
		for _, spec := range specs {
			h.CustomNames[spec.Index] = spec.Name
		}
	}
	return h
}

func (s *Sampler) sample(now time.Time) metrics.Sample {
	cpu := s.provider.CPU()
	mem := s.provider.Memory()

	values := make([]float64, len(s.opts.Kinds))
	for i, k := range s.opts.Kinds {
		switch k.Kind {
		case metrics.KindCPUTotal:
			values[i] = cpu.Total
		case metrics.KindMemoryUsed:
			values[i] = collecting.MegaBytes(mem.Used)
		case metrics.KindMemoryFree:
			values[i] = collecting.MegaBytes(mem.Free)
		case metrics.KindMemoryAvailable:
			values[i] = collecting.MegaBytes(mem.Available)
		case metrics.KindSwapUsed:
			values[i] = collecting.MegaBytes(mem.SwapUsed)
		case metrics.KindSwapFree:
			values[i] = collecting.MegaBytes(mem.SwapFree)
		}
	}

	return metrics.Sample{
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Values:    values,
		PerCore:   cpu.PerCore,
		Processes: s.tracker.Usage(s.cache),
	}
}
