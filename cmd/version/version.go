// Package version provides the version command for Shipyard.
package version

import (
	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
)

// NewCmdVersion creates the version command
func NewCmdVersion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version information for Shipyard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
		// Printing the version needs no configuration or database
		PersistentPreRun:  func(cmd *cobra.Command, args []string) {},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	return output.FprintPlain(cmd, "%s\n", app.Version)
}
