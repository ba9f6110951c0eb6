// Package providers implements the command listing LLM and deploy providers.
package providers

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
)

func NewCmdProviders() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show LLM and deploy providers",
		Long: `List every supported LLM and deploy provider with its configuration state.

Credentials are shown masked. Providers without a credential cannot be used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := printProviders(app.GetLLMRegistry(), app.GetConfig())
			if err != nil {
				return utils.CommandError("printing providers table", err)
			}
			return output.FprintPlain(cmd, "%s", out)
		},
	}
}

func llmCredential(cfg *config.Config, name llm.Name) string {
	switch name {
	case llm.OpenAI:
		return cfg.OpenAIAPIKey
	case llm.Anthropic:
		return cfg.AnthropicAPIKey
	case llm.Google:
		return cfg.GoogleAPIKey
	case llm.Ollama:
		return cfg.OllamaBaseURL
	}
	return ""
}

func deployCredential(cfg *config.Config, provider domain.DeployProvider) string {
	switch provider {
	case domain.DeployProviderVercel:
		return cfg.VercelToken
	case domain.DeployProviderNetlify:
		return cfg.NetlifyToken
	case domain.DeployProviderGitHubPages:
		return cfg.GitHubToken
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printProviders(registry *llm.Registry, cfg *config.Config) (string, error) {
	configured := registry.ConfiguredProviders()

	var data [][]string
	for _, name := range llm.AllNames {
		provider, err := registry.Get(name)
		if err != nil {
			return "", err
		}
		kind := "llm"
		if name == registry.DefaultProvider() {
			kind = "llm (default)"
		}
		data = append(data, []string{
			kind,
			name.String(),
			yesNo(slices.Contains(configured, name)),
			provider.DefaultModel(),
			output.MaskSensitiveValue(llmCredential(cfg, name)),
		})
	}

	deployProviders := deploytarget.ConfiguredProviders(cfg)
	for _, provider := range []domain.DeployProvider{
		domain.DeployProviderVercel,
		domain.DeployProviderNetlify,
		domain.DeployProviderGitHubPages,
	} {
		data = append(data, []string{
			"deploy",
			provider.String(),
			yesNo(slices.Contains(deployProviders, provider)),
			"-",
			output.MaskSensitiveValue(deployCredential(cfg, provider)),
		})
	}

	return output.PrintTable([]string{"Kind", "Name", "Configured", "Model", "Credential"}, data)
}
