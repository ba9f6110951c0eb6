package project

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
)

func NewCmdProjectDeploy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy <project-id>",
		Short: "Push generated code to GitHub and deploy it",
		Long: `Push the generated files to a GitHub repository and deploy them to the hosting provider.

The project must have been generated first. Environment variables are passed as
--env KEY=VALUE and are stored encrypted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectDeploy(cmd, args)
		},
	}

	cmd.Flags().String("provider", domain.DeployProviderVercel.String(), "Deploy provider (vercel, netlify, github-pages)")
	cmd.Flags().StringArrayP("env", "e", nil, "Environment variable as KEY=VALUE")
	cmd.Flags().Bool("public", false, "Create a public GitHub repository")
	return cmd
}

// runProjectDeploy handles the main logic for project deployment
func runProjectDeploy(cmd *cobra.Command, args []string) error {
	projectID, err := utils.ParseProjectID("project deploy", args[0])
	if err != nil {
		return err
	}

	providerFlag, _ := cmd.Flags().GetString("provider")
	provider, err := domain.ParseDeployProvider(strings.ToLower(providerFlag))
	if err != nil {
		return err
	}

	envFlags, _ := cmd.Flags().GetStringArray("env")
	env, err := parseEnvVariables(envFlags)
	if err != nil {
		return err
	}

	public, _ := cmd.Flags().GetBool("public")
	private := !public

	principal, err := utils.Operator("deploying project")
	if err != nil {
		return err
	}

	projectService := app.GetProjectService()

	// Fetch project details for display
	p, err := projectService.Get(principal, projectID)
	if err != nil {
		return fmt.Errorf("failed to find project %s: %w", projectID, err)
	}

	if err := output.FprintPlain(cmd, "Starting deployment for project '%s' to %s\n", p.Name, provider); err != nil {
		return err
	}

	result, err := projectService.Deploy(cmd.Context(), principal, projectID, project.DeployOptions{
		Provider:     provider,
		EnvVariables: env,
		Private:      &private,
	})
	if err != nil {
		if result != nil {
			if printErr := printDeployResult(cmd, result); printErr != nil {
				return printErr
			}
		}
		if printErr := output.FprintError(cmd, "Deployment failed: %s\n", project.FormatErrorForUser(err)); printErr != nil {
			return printErr
		}
		return utils.CommandError("deploying project", err, "project_id", projectID)
	}

	if err := output.FprintSuccess(cmd, "\nProject '%s' deployed successfully\n", p.Name); err != nil {
		return err
	}
	return printDeployResult(cmd, result)
}

func printDeployResult(cmd *cobra.Command, result *pipeline.Result) error {
	var data [][]string
	if result.RepoURL != "" {
		data = append(data, []string{"Repository", result.RepoURL})
	}
	if result.CommitHash != "" {
		data = append(data, []string{"Commit", output.FormatCommitHash(result.CommitHash)})
	}
	if result.DeploymentID != "" {
		data = append(data, []string{"Deployment", result.DeploymentID})
	}
	if result.DeploymentURL != "" {
		data = append(data, []string{"URL", result.DeploymentURL})
	}
	if len(data) == 0 {
		return nil
	}

	table, err := output.PrintTable([]string{}, data)
	if err != nil {
		return utils.CommandError("printing deployment result", err)
	}
	return output.FprintPlain(cmd, "%s", table)
}

// parseEnvVariables splits KEY=VALUE flags; the value may itself contain '='
func parseEnvVariables(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable '%s': expected KEY=VALUE", value)
		}
		env[key] = val
	}
	return env, nil
}
