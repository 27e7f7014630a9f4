package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"HostSampler/pkg/version"
)

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hostsampler %s\n", version.String())
			return err
		},
	}
}
