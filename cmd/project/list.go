package project

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/domain"
)

func NewCmdProjectList() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Long: `Display every project known to Shipyard.

Shows project information in a table format including:
- Project ID, name and current status
- Deployment URL of the last successful deployment
- Creation and update timestamps`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status *domain.ProjectStatus
			if value, _ := cmd.Flags().GetString("status"); value != "" {
				parsed, err := domain.ParseProjectStatus(strings.ToUpper(value))
				if err != nil {
					return err
				}
				status = &parsed
			}

			principal, err := utils.Operator("listing projects")
			if err != nil {
				return err
			}

			projects, err := app.GetProjectService().List(principal, status)
			if err != nil {
				return utils.CommandError("listing projects", err)
			}

			out, err := output.PrintProjectList(projects)
			if err != nil {
				return utils.CommandError("printing project list table", err)
			}

			return output.FprintPlain(cmd, "%s", out)
		},
	}

	cmd.Flags().StringP("status", "s", "", "Only list projects in this status (e.g. DRAFT, DEPLOYED)")
	return cmd
}
