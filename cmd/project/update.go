package project

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/project"
)

func NewCmdProjectUpdate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update project metadata",
		Long: `Change the name, description, prompt or tech stack of a project.

Only the flags that are given are changed. Passing --tech replaces the whole tech stack.
Projects cannot be updated while they are generating or deploying.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := utils.ParseProjectID("project update", args[0])
			if err != nil {
				return err
			}

			var input project.UpdateInput
			flags := cmd.Flags()
			if flags.Changed("name") {
				name, _ := flags.GetString("name")
				input.Name = &name
			}
			if flags.Changed("description") {
				description, _ := flags.GetString("description")
				input.Description = &description
			}
			if flags.Changed("prompt") {
				prompt, _ := flags.GetString("prompt")
				input.Prompt = &prompt
			}
			if flags.Changed("tech") {
				techFlags, _ := flags.GetStringArray("tech")
				techStack, err := parseTechStack(techFlags)
				if err != nil {
					return err
				}
				input.TechStack = &techStack
			}
			if input == (project.UpdateInput{}) {
				return errors.New("nothing to update: pass at least one of --name, --description, --prompt, --tech")
			}

			principal, err := utils.Operator("updating project")
			if err != nil {
				return err
			}

			updated, err := app.GetProjectService().Update(cmd.Context(), principal, projectID, input)
			if err != nil {
				return utils.CommandError("updating project", err, "project_id", projectID)
			}

			out, err := output.PrintProjectDetails(updated, true)
			if err != nil {
				return utils.CommandError("printing project details table", err)
			}
			return output.FprintPlain(cmd, "%s", out)
		},
	}

	cmd.Flags().StringP("name", "n", "", "New project name")
	cmd.Flags().String("description", "", "New project description")
	cmd.Flags().StringP("prompt", "p", "", "New generation prompt")
	cmd.Flags().StringArrayP("tech", "t", nil, "Tech stack item as name:category[:version]")
	return cmd
}
