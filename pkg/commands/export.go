package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"HostSampler/pkg/exporting"
	"HostSampler/pkg/logx"
)

// NewExportCmd creates the export subcommand.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Aliases: []string{"e"},
		Use:     "export",
		Short:   "Convert a data file to a columnar format",
		Long: `Convert a data file to parquet or JSON lines, one row per sample and one
column per series. Per-core usage becomes CPU_CORE_{i} columns and samples
without a bound process become nulls.

Example:
  hostsampler export -d system_data.csv
  hostsampler export -f jsonl -o run.jsonl`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	Cfg.AddDataPathFlag(cmd)
	Cfg.AddExportFlags(cmd)

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	f, ok := exporting.Get(Cfg.ExportFormat)
	if !ok {
		return errors.Errorf("unsupported export format %q", Cfg.ExportFormat)
	}

	series, err := exporting.LoadSeries(Cfg.DataPath)
	if err != nil {
		return err
	}

	out := Cfg.ExportPath
	if out == "" {
		out = exporting.ExportPath(Cfg.DataPath, f)
	}
	if err := exporting.ExportSeries(series, out, f.Name()); err != nil {
		return err
	}

	logx.As().Info().
		Str("path", out).
		Str("format", f.Name()).
		Int("samples", series.Len()).
		Msg("Export written")
	return nil
}
