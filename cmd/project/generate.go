package project

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/project"
)

func NewCmdProjectGenerate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <project-id>",
		Short: "Generate code for a project with an LLM",
		Long: `Send the project prompt to an LLM provider and store the generated files.

The stored project prompt is used unless --prompt is given. A failed generation
leaves the project in FAILED status; it can be generated again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := utils.ParseProjectID("project generate", args[0])
			if err != nil {
				return err
			}

			prompt, _ := cmd.Flags().GetString("prompt")
			provider, _ := cmd.Flags().GetString("provider")
			model, _ := cmd.Flags().GetString("model")

			principal, err := utils.Operator("generating project")
			if err != nil {
				return err
			}

			if err := output.FprintPlain(cmd, "Generating code for project %s...\n", projectID); err != nil {
				return err
			}

			result, err := app.GetProjectService().Generate(cmd.Context(), principal, projectID, project.GenerateOptions{
				Prompt:   prompt,
				Provider: provider,
				Model:    model,
			})
			if err != nil {
				if printErr := output.FprintError(cmd, "Generation failed: %s\n", project.FormatErrorForUser(err)); printErr != nil {
					return printErr
				}
				return utils.CommandError("generating project", err, "project_id", projectID)
			}

			summary, err := output.PrintTable([]string{}, [][]string{
				{"Generation", result.GenerationID.String()},
				{"Provider", result.Provider},
				{"Model", result.Model},
				{"Files", fmt.Sprintf("%d", len(result.Files))},
				{"Tokens", fmt.Sprintf("%d in / %d out", result.Usage.InputTokens, result.Usage.OutputTokens)},
				{"Duration", (time.Duration(result.DurationMs) * time.Millisecond).String()},
				{"Version", fmt.Sprintf("%d", result.Version)},
			})
			if err != nil {
				return utils.CommandError("printing generation summary", err)
			}

			files, err := output.PrintFileList(result.Files)
			if err != nil {
				return utils.CommandError("printing file list", err)
			}

			if err := output.FprintSuccess(cmd, "Generation completed\n"); err != nil {
				return err
			}
			return output.FprintPlain(cmd, "%s\n%s", summary, files)
		},
	}

	cmd.Flags().StringP("prompt", "p", "", "Prompt to use instead of the stored project prompt")
	cmd.Flags().String("provider", "", "LLM provider (openai, anthropic, google, ollama); configured default when empty")
	cmd.Flags().StringP("model", "m", "", "Model name; provider default when empty")
	return cmd
}
