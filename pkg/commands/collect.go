package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/c2h5oh/datasize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"HostSampler/pkg/archiving"
	"HostSampler/pkg/collecting"
	"HostSampler/pkg/exporting"
	"HostSampler/pkg/logx"
	"HostSampler/pkg/profiling"
	"HostSampler/pkg/version"
)

var collectConvert bool

// exit is replaced in tests.
var exit = os.Exit

// NewCollectCmd creates the collect subcommand.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Aliases: []string{"c"},
		Use:     "collect",
		Short:   "Sample system usage until interrupted",
		Long: `Sample CPU, memory and tracked process usage at a fixed interval until
interrupted with Ctrl+C or the data file reaches --max-size. A second Ctrl+C
exits immediately without saving.

Example:
  hostsampler collect --interval 500ms --metrics cpu-usage-total,memory-used
  hostsampler collect -p db=postgres -p nginx --max-size 100MB --convert`,
		Args: cobra.NoArgs,
		RunE: runCollect,
	}

	Cfg.AddCollectionFlags(cmd)
	Cfg.AddOutputFlags(cmd)
	Cfg.AddPlotFlags(cmd)
	cmd.Flags().BoolVar(&collectConvert, "convert", false, "Render the plot once collection stops")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	provider, err := collecting.NewGopsutilProvider()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stop := notifyInterrupt(cancel)
	defer stop()

	return collect(ctx, provider, uuid.New().String())
}

// collect runs the sampler and the follow-up steps of a run. Reaching the size
// limit still converts and archives the data before the error is returned.
func collect(ctx context.Context, provider collecting.SystemProvider, runID string) error {
	logx.As().Info().
		Str("run_id", runID).
		Str("version", version.Version).
		Str("data_path", Cfg.DataPath).
		Msg("Starting sampler")

	sampler := profiling.NewSampler(provider, profiling.Options{
		Interval:      Cfg.Interval,
		Kinds:         Cfg.Kinds(),
		Specs:         Cfg.Specs(),
		Path:          Cfg.DataPath,
		Backups:       Cfg.Backups,
		MaxSize:       Cfg.MaxSizeBytes(),
		FlushEveryRow: Cfg.FlushEveryRow,
		AppVersion:    version.Version,
	})

	stats, runErr := sampler.Run(ctx)
	if runErr != nil && !errors.Is(runErr, exporting.ErrSizeExceeded) {
		return errors.Wrap(runErr, "collection failed")
	}
	logx.As().Info().
		Str("run_id", runID).
		Int("samples", stats.Samples).
		Dur("duration", stats.Duration).
		Str("total_time", logx.ExecutionTime()).
		Str("size", datasize.ByteSize(stats.BytesWritten).HumanReadable()).
		Msg("Collection complete")

	files := []string{Cfg.DataPath}
	if collectConvert {
		written, err := renderPlot(Cfg.DataPath)
		if err != nil {
			return err
		}
		if written {
			files = append(files, Cfg.PlotPath)
		}
	}

	if Cfg.Archive.Enabled {
		// ctx is already cancelled after an interrupt
		if err := archive(context.Background(), runID, files); err != nil {
			return err
		}
	}

	if runErr != nil {
		return errors.Wrapf(runErr, "collection stopped at %s", Cfg.MaxSizeBytes().HumanReadable())
	}
	return nil
}

func archive(ctx context.Context, runID string, files []string) error {
	a, err := archiving.New(Cfg.Archive, runID)
	if err != nil {
		return err
	}
	if _, err := a.Archive(ctx, files...); err != nil {
		return errors.Wrap(err, "archive failed")
	}
	return nil
}

// notifyInterrupt cancels on the first SIGINT or SIGTERM and exits on the
// second. The returned func stops listening.
func notifyInterrupt(cancel context.CancelFunc) func() {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logx.As().Info().
				Str("signal", sig.String()).
				Msg("Stopping after the current sample, interrupt again to exit without saving")
			cancel()
		case <-done:
			return
		}

		select {
		case <-sigChan:
			logx.As().Warn().Msg("Interrupted again, exiting without saving")
			exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
