package project

import (
	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
)

func NewCmdProjectGenerations() *cobra.Command {
	return &cobra.Command{
		Use:   "generations <project-id>",
		Short: "List code generation history",
		Long:  "Display every code generation run of a project, newest first, with provider, model, token usage and errors.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := utils.ParseProjectID("project generations", args[0])
			if err != nil {
				return err
			}

			principal, err := utils.Operator("listing generations")
			if err != nil {
				return err
			}

			generations, err := app.GetProjectService().ListGenerations(principal, projectID)
			if err != nil {
				return utils.CommandError("listing generations", err, "project_id", projectID)
			}

			out, err := output.PrintGenerationList(generations)
			if err != nil {
				return utils.CommandError("printing generation list table", err)
			}
			return output.FprintPlain(cmd, "%s", out)
		},
	}
}
