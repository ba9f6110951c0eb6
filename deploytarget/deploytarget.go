// Package deploytarget provisions projects on hosting platforms and waits for their deployments.
package deploytarget

import (
	"errors"
	"fmt"

	"github.com/oar-cd/shipyard/config"
	"github.com/oar-cd/shipyard/domain"
)

var (
	// ErrDeploymentTimeout is returned when a deployment does not reach a terminal state in time
	ErrDeploymentTimeout = errors.New("deployment timed out")
	ErrNotConfigured     = errors.New("deploy target is not configured")
)

// TerminalStateError reports a deployment that finished without becoming ready
type TerminalStateError struct {
	State string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("deployment finished in state %s", e.State)
}

type DeployRequest struct {
	ProjectName     string
	RepoOwner       string
	RepoName        string
	BuildCommand    string
	OutputDirectory string
	Framework       string
	EnvVariables    map[string]string
}

type DeployResult struct {
	URL          string
	DeploymentID string
}

// ConfiguredProviders lists deploy providers whose credential is present
func ConfiguredProviders(cfg *config.Config) []domain.DeployProvider {
	var providers []domain.DeployProvider
	if cfg.VercelToken != "" {
		providers = append(providers, domain.DeployProviderVercel)
	}
	if cfg.NetlifyToken != "" {
		providers = append(providers, domain.DeployProviderNetlify)
	}
	if cfg.GitHubToken != "" {
		providers = append(providers, domain.DeployProviderGitHubPages)
	}
	return providers
}
