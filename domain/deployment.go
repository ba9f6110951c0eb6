package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeployProvider identifies a deploy target platform
type DeployProvider string

const (
	DeployProviderVercel      DeployProvider = "vercel"
	DeployProviderNetlify     DeployProvider = "netlify"
	DeployProviderGitHubPages DeployProvider = "github-pages"
)

func (p DeployProvider) String() string {
	return string(p)
}

// IsValid checks if the DeployProvider is known
func (p DeployProvider) IsValid() bool {
	switch p {
	case DeployProviderVercel, DeployProviderNetlify, DeployProviderGitHubPages:
		return true
	default:
		return false
	}
}

// ParseDeployProvider parses a string into a DeployProvider
func ParseDeployProvider(s string) (DeployProvider, error) {
	provider := DeployProvider(s)
	if !provider.IsValid() {
		return "", fmt.Errorf("invalid deploy provider: %s", s)
	}
	return provider, nil
}

type Deployment struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	Provider     DeployProvider
	Status       DeploymentStatus
	URL          *string
	RepoURL      *string
	ExternalID   *string
	ErrorMessage *string
	EnvVariables map[string]string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

func (d *Deployment) URLStr() string {
	if d.URL == nil {
		return ""
	}
	return *d.URL
}

func (d *Deployment) ErrorMessageStr() string {
	if d.ErrorMessage == nil {
		return ""
	}
	return *d.ErrorMessage
}

// Succeed marks the deployment as SUCCESS
func (d *Deployment) Succeed(url, repoURL, externalID string) {
	now := time.Now()
	d.Status = DeploymentStatusSuccess
	d.URL = &url
	d.RepoURL = &repoURL
	d.ExternalID = &externalID
	d.CompletedAt = &now
}

// Fail marks the deployment as FAILED with the given message
func (d *Deployment) Fail(message string) {
	now := time.Now()
	d.Status = DeploymentStatusFailed
	d.ErrorMessage = &message
	d.CompletedAt = &now
}

func NewDeployment(projectID uuid.UUID, provider DeployProvider, envVariables map[string]string) Deployment {
	return Deployment{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Provider:     provider,
		Status:       DeploymentStatusPending,
		EnvVariables: envVariables,
		StartedAt:    time.Now(),
	}
}
