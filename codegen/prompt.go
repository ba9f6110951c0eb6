package codegen

import (
	"fmt"
	"strings"

	"github.com/oar-cd/shipyard/domain"
)

// SystemPrompt instructs the model to answer with the files payload only
const SystemPrompt = `You are an expert software engineer who generates complete, working projects.
Respond with a single JSON object and nothing else, using exactly this shape:
{"files":[{"path":"relative/path/to/file","content":"full file content"}]}
Include every file needed to build and run the project, including configuration and a README.
Use forward slashes in paths and never use absolute paths.`

// BuildPrompt renders the user prompt for a generation run. An empty userPrompt
// falls back to the prompt stored on the project.
func BuildPrompt(project *domain.Project, userPrompt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project name: %s\n", project.Name)
	if desc := strings.TrimSpace(project.DescriptionStr()); desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}

	if len(project.TechStack) > 0 {
		b.WriteString("Tech stack:\n")
		for _, item := range project.TechStack {
			if item.Version != nil && *item.Version != "" {
				fmt.Fprintf(&b, "- %s %s (%s)\n", item.Name, *item.Version, item.Category)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", item.Name, item.Category)
			}
		}
	}

	prompt := strings.TrimSpace(userPrompt)
	if prompt == "" {
		prompt = strings.TrimSpace(project.PromptStr())
	}
	if prompt != "" {
		fmt.Fprintf(&b, "\nRequirements:\n%s\n", prompt)
	}

	return b.String()
}
