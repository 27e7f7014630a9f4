package commands

import (
	"github.com/spf13/cobra"

	"HostSampler/pkg/exporting"
	"HostSampler/pkg/graphing"
	"HostSampler/pkg/logx"
)

// NewConvertCmd creates the convert subcommand.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Aliases: []string{"plot"},
		Use:     "convert",
		Short:   "Render a data file into an HTML plot",
		Long: `Render the CPU, memory and swap columns of a data file into one
interactive HTML page.

Example:
  hostsampler convert -d system_data.csv --plot-path run.html --open-plot
  hostsampler convert --white-plot --plot-width 1200 --plot-height 600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := renderPlot(Cfg.DataPath)
			return err
		},
	}

	Cfg.AddDataPathFlag(cmd)
	Cfg.AddPlotFlags(cmd)

	return cmd
}

// renderPlot loads dataPath and writes the plot configured in Cfg. It reports
// whether a plot was written.
func renderPlot(dataPath string) (bool, error) {
	series, err := exporting.LoadSeries(dataPath)
	if err != nil {
		return false, err
	}

	written, err := graphing.Render(series, graphing.Options{
		Path:     Cfg.PlotPath,
		Width:    Cfg.PlotWidth,
		Height:   Cfg.PlotHeight,
		White:    Cfg.WhitePlot,
		DataPath: dataPath,
	})
	if err != nil || !written {
		return written, err
	}

	if Cfg.OpenPlot {
		if err := graphing.Open(Cfg.PlotPath); err != nil {
			logx.As().Warn().Err(err).Str("path", Cfg.PlotPath).Msg("Failed to open plot")
		}
	}
	return true, nil
}
