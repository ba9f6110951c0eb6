package project

import (
	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
)

func NewCmdProjectDeployments() *cobra.Command {
	return &cobra.Command{
		Use:   "deployments <project-id>",
		Short: "List deployment history",
		Long:  "Display every deployment of a project, newest first, with provider, status, URL and errors.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := utils.ParseProjectID("project deployments", args[0])
			if err != nil {
				return err
			}

			principal, err := utils.Operator("listing deployments")
			if err != nil {
				return err
			}

			deployments, err := app.GetProjectService().ListDeployments(principal, projectID)
			if err != nil {
				return utils.CommandError("listing deployments", err, "project_id", projectID)
			}

			out, err := output.PrintDeploymentList(deployments)
			if err != nil {
				return utils.CommandError("printing deployment list table", err)
			}
			return output.FprintPlain(cmd, "%s", out)
		},
	}
}
