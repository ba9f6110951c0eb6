package project

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/project"
)

func NewCmdProjectCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		Long: `Create a new project in DRAFT status.

Tech stack items are given as name:category or name:category:version,
for example --tech react:frontend:18 --tech postgres:database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			techFlags, _ := cmd.Flags().GetStringArray("tech")

			techStack, err := parseTechStack(techFlags)
			if err != nil {
				return err
			}

			input := project.CreateInput{
				Name:      name,
				TechStack: techStack,
			}
			if cmd.Flags().Changed("description") {
				description, _ := cmd.Flags().GetString("description")
				input.Description = &description
			}
			if cmd.Flags().Changed("prompt") {
				prompt, _ := cmd.Flags().GetString("prompt")
				input.Prompt = &prompt
			}

			principal, err := utils.Operator("creating project")
			if err != nil {
				return err
			}

			created, err := app.GetProjectService().Create(cmd.Context(), principal, input)
			if err != nil {
				return utils.CommandError("creating project", err, "name", name)
			}

			out, err := output.PrintProjectDetails(created, true)
			if err != nil {
				return utils.CommandError("printing project details table", err)
			}

			return output.FprintPlain(cmd, "%s", out)
		},
	}

	cmd.Flags().StringP("name", "n", "", "Project name")
	cmd.Flags().String("description", "", "Project description")
	cmd.Flags().StringP("prompt", "p", "", "Prompt used when generating code")
	cmd.Flags().StringArrayP("tech", "t", nil, "Tech stack item as name:category[:version]")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		slog.Error("Failed to mark name flag as required", "error", err)
		panic(fmt.Sprintf("CLI setup error: %v", err)) // This is a setup error, should panic
	}
	return cmd
}

// parseTechStack turns name:category[:version] flags into tech stack items
func parseTechStack(values []string) ([]domain.TechStackItem, error) {
	items := make([]domain.TechStackItem, 0, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid tech stack item '%s': expected name:category[:version]", value)
		}

		item := domain.TechStackItem{
			Name:     strings.TrimSpace(parts[0]),
			Category: domain.TechStackCategory(strings.ToLower(strings.TrimSpace(parts[1]))),
		}
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			version := strings.TrimSpace(parts[2])
			item.Version = &version
		}
		items = append(items, item)
	}
	return items, nil
}
