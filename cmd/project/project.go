// Package project provides commands for managing generated projects in Shipyard.
package project

import "github.com/spf13/cobra"

func NewCmdProject() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage generated projects",
	}

	cmd.AddCommand(NewCmdProjectList())
	cmd.AddCommand(NewCmdProjectCreate())
	cmd.AddCommand(NewCmdProjectUpdate())
	cmd.AddCommand(NewCmdProjectRemove())
	cmd.AddCommand(NewCmdProjectShow())
	cmd.AddCommand(NewCmdProjectGenerate())
	cmd.AddCommand(NewCmdProjectDeploy())
	cmd.AddCommand(NewCmdProjectGenerations())
	cmd.AddCommand(NewCmdProjectDeployments())
	return cmd
}
