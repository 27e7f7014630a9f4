package config

import (
	"strings"

	"github.com/spf13/cobra"

	"HostSampler/pkg/exporting"
	"HostSampler/pkg/metrics"
)

// AddCollectionFlags adds sampling flags to a command.
func (c *Config) AddCollectionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.DurationVarP(&c.Interval, "interval", "i", c.Interval, "Sampling interval (minimum 100ms)")
	flags.StringSliceVarP(&c.Metrics, "metrics", "m", c.Metrics,
		"Metrics to record ("+strings.Join(metrics.SelectableNames(), ", ")+")")
	flags.StringArrayVarP(&c.Processes, "process", "p", c.Processes,
		"Process to track as name=search or search, matched against the full command line (repeatable)")
	flags.BoolVar(&c.FlushEveryRow, "flush-every-row", c.FlushEveryRow, "Flush the data file after every row")
}

// AddDataPathFlag adds the data file path flag to a command.
func (c *Config) AddDataPathFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.DataPath, "data-path", "d", c.DataPath, "Data file path")
}

// AddOutputFlags adds data file flags to a command.
func (c *Config) AddOutputFlags(cmd *cobra.Command) {
	c.AddDataPathFlag(cmd)
	flags := cmd.Flags()
	flags.IntVar(&c.Backups, "backups", c.Backups, "Number of previous data files to keep (0 disables)")
	flags.StringVar(&c.MaxSize, "max-size", c.MaxSize, "Stop collecting once the data file reaches this size, e.g. 100MB (empty for unlimited)")
}

// AddPlotFlags adds plot flags to a command.
func (c *Config) AddPlotFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.PlotPath, "plot-path", c.PlotPath, "HTML plot output path")
	flags.IntVar(&c.PlotWidth, "plot-width", c.PlotWidth, "Plot width in pixels")
	flags.IntVar(&c.PlotHeight, "plot-height", c.PlotHeight, "Plot height in pixels")
	flags.BoolVar(&c.WhitePlot, "white-plot", c.WhitePlot, "Use a white plot theme")
	flags.BoolVar(&c.OpenPlot, "open-plot", c.OpenPlot, "Open the plot in a browser once written")
}

// AddExportFlags adds export flags to a command.
func (c *Config) AddExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&c.ExportFormat, "format", "f", c.ExportFormat,
		"Export format ("+strings.Join(exporting.Names(), ", ")+")")
	flags.StringVarP(&c.ExportPath, "output", "o", c.ExportPath, "Export file path (derived from the data path if empty)")
}

// AddLogFlags adds logging flags to a command's persistent flags.
func (c *Config) AddLogFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level ("+strings.Join(ValidLogLevels(), ", ")+")")
	flags.StringVar(&c.LogDir, "log-dir", c.LogDir, "Also write logs to a rolling file in this directory")
	flags.StringVar(&c.LogFile, "log-file", c.LogFile, "Rolling log file name")
}
