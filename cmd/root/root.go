// Package root implements the command line interface for Shipyard.
package root

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/project"
	"github.com/oar-cd/shipyard/cmd/providers"
	"github.com/oar-cd/shipyard/cmd/server"
	"github.com/oar-cd/shipyard/cmd/token"
	"github.com/oar-cd/shipyard/cmd/user"
	"github.com/oar-cd/shipyard/cmd/version"
	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/logging"
)

func Execute() {
	if err := NewCmdRoot(config.GetDefaultDataDir()).Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCmdRoot(defaultDataDir string) *cobra.Command {
	var dataDir string
	var configPath string

	cmd := &cobra.Command{
		Use:   "shipyard",
		Short: "Generate web apps with LLMs and ship them to the web",
		Long: `Shipyard turns a project description into code with an LLM, pushes it to GitHub
	and deploys it to a hosting provider, tracking every run along the way.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The data directory flag only overrides the environment when given explicitly
			cliDataDir := ""
			if cmd.Flags().Changed("data-dir") {
				cliDataDir = dataDir
			}

			cfg, err := config.NewConfig(configPath, cliDataDir)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// Initialize colors (CLI flag overrides config)
			colorDisabled := !cfg.ColorEnabled
			if output.NoColor.IsSet() {
				colorDisabled = true // --no-color flag overrides config
			}
			output.InitColors(colorDisabled)

			// Initialize logging (CLI flag overrides config)
			logLevel := cfg.LogLevel
			if logging.LogLevel.IsSet() {
				logLevel = logging.LogLevel.String()
			}
			logging.InitLogging(logLevel)

			if err := app.InitializeWithConfig(cfg); err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := app.Close(); err != nil {
				slog.Warn("Failed to close application resources", "error", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().
		StringVarP(&dataDir, "data-dir", "d", defaultDataDir, "Data directory for the Shipyard database and scratch files")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(project.NewCmdProject())
	cmd.AddCommand(server.NewCmdServer())
	cmd.AddCommand(providers.NewCmdProviders())
	cmd.AddCommand(token.NewCmdToken())
	cmd.AddCommand(user.NewCmdUser())
	cmd.AddCommand(version.NewCmdVersion())
	return cmd
}
