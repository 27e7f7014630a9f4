// Package commands provides CLI command implementations.
package commands

import (
	"github.com/spf13/cobra"

	"HostSampler/pkg/config"
	"HostSampler/pkg/logx"
)

var (
	// Cfg is the shared configuration instance.
	Cfg = config.New()

	flagConfig string
)

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	Cfg = config.New()

	root := &cobra.Command{
		Use:   "hostsampler",
		Short: "Host CPU, memory and process usage sampler",
		Long: `HostSampler records CPU, memory, swap and per-process usage at a fixed
interval into a self-describing data file and renders it as an HTML plot.

Commands:
  collect   Sample until interrupted (Ctrl+C) or the size limit is reached
  convert   Render a data file into an HTML plot
  export    Convert a data file to parquet or jsonl
  version   Print build information`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initialize,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file path (yaml, toml or json)")
	Cfg.AddLogFlags(root)

	root.AddCommand(
		NewCollectCmd(),
		NewConvertCmd(),
		NewExportCmd(),
		NewVersionCmd(),
	)

	return root
}

// initialize loads the configuration for the invoked command and sets up
// logging.
func initialize(cmd *cobra.Command, args []string) error {
	if err := Cfg.Load(flagConfig, cmd.Flags()); err != nil {
		return err
	}
	logx.StartTimer()
	return logx.Initialize(Cfg.Logging())
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
