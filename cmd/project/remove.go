package project

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
)

func NewCmdProjectRemove() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <project-id>",
		Short: "Remove a project and its history",
		Long: `Remove a project from Shipyard.

This operation will permanently delete:
- Generated files and project metadata
- All code generation history
- All deployment history and stored environment variables

The GitHub repository and the hosted deployment are left untouched.
The project cannot be recovered after deletion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectRemove(cmd, args)
		},
	}

	cmd.Flags().BoolP("confirm", "y", false, "Skip confirmation prompt and proceed with deletion")
	return cmd
}

// runProjectRemove handles the main logic for project removal
func runProjectRemove(cmd *cobra.Command, args []string) error {
	projectID, err := utils.ParseProjectID("project remove", args[0])
	if err != nil {
		return err
	}

	skipConfirmation, _ := cmd.Flags().GetBool("confirm")

	principal, err := utils.Operator("removing project")
	if err != nil {
		return err
	}

	// Fetch project details before removal
	project, err := app.GetProjectService().Get(principal, projectID)
	if err != nil {
		return fmt.Errorf("failed to find project %s: %w", projectID, err)
	}

	if err := output.FprintWarning(cmd, "\nWARNING: You are about to DELETE the following project:\n"); err != nil {
		return err
	}

	projectInfo, err := output.PrintProjectDetails(project, true)
	if err != nil {
		return fmt.Errorf("failed to format project details: %w", err)
	}
	if err := output.FprintPlain(cmd, "%s\n", projectInfo); err != nil {
		return err
	}

	// Confirmation prompt (unless skipped)
	if !skipConfirmation {
		if !promptConfirmation(cmd, project.Name) {
			return output.FprintPlain(cmd, "Project removal cancelled.\n")
		}
	}

	if err := app.GetProjectService().Remove(cmd.Context(), principal, projectID); err != nil {
		return fmt.Errorf("failed to remove project: %w", err)
	}

	return output.FprintSuccess(cmd, "Project '%s' removed successfully\n", project.Name)
}

// promptConfirmation asks the user to confirm project deletion
func promptConfirmation(cmd *cobra.Command, projectName string) bool {
	if err := output.FprintWarning(cmd, "Type the project name '%s' to confirm deletion: ", projectName); err != nil {
		return false
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return false
	}

	return strings.TrimSpace(input) == projectName
}
