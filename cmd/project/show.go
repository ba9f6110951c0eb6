package project

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
)

func NewCmdProjectShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show detailed project information",
		Long:  "Display comprehensive information about a project including its tech stack, prompt, repository and deployment URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return cmd.Help()
			}

			projectID, err := utils.ParseProjectID("project show", args[0])
			if err != nil {
				return err
			}

			principal, err := utils.Operator("project show")
			if err != nil {
				return err
			}

			project, err := app.GetProjectService().Get(principal, projectID)
			if err != nil {
				return fmt.Errorf("failed to retrieve project %s: %w", projectID, err)
			}

			out, err := output.PrintProjectDetails(project, false)
			if err != nil {
				return fmt.Errorf("failed to format project details: %w", err)
			}
			if err := output.FprintPlain(cmd, "%s", out); err != nil {
				return fmt.Errorf("failed to print project details: %w", err)
			}

			if showFiles, _ := cmd.Flags().GetBool("files"); showFiles {
				files, err := output.PrintFileList(project.GeneratedFiles)
				if err != nil {
					return fmt.Errorf("failed to format file list: %w", err)
				}
				if err := output.FprintPlain(cmd, "\nGenerated files:\n%s", files); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolP("files", "f", false, "Also list the generated files")
	return cmd
}
