// Package pipeline pushes generated code to a source host and then deploys it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gosimple/slug"

	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/sourcehost"
)

const (
	defaultRepoName = "shipyard-project"
	maxRepoName     = 100
	commitMessage   = "Initial commit from Shipyard"
)

type SourceHost interface {
	PushFiles(ctx context.Context, req sourcehost.PushRequest) (*sourcehost.PushResult, error)
}

type DeployTarget interface {
	Deploy(ctx context.Context, req deploytarget.DeployRequest) (*deploytarget.DeployResult, error)
}

// NotImplementedError is returned for deploy providers that are recognised but not supported yet
type NotImplementedError struct {
	Provider domain.DeployProvider
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("deploy provider %s is not yet implemented", e.Provider)
}

type Request struct {
	Files        []domain.GeneratedFile
	Name         string
	Description  string
	Private      bool
	Provider     domain.DeployProvider
	EnvVariables map[string]string
	RepoOwner    string // authenticated source host user when empty
}

// Result fields are empty when the phase that produces them did not succeed
type Result struct {
	Success       bool   `json:"success"`
	RepoURL       string `json:"repo_url,omitempty"`
	CommitHash    string `json:"commit_hash,omitempty"`
	DeploymentURL string `json:"deployment_url,omitempty"`
	DeploymentID  string `json:"deployment_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Orchestrator struct {
	source SourceHost
	vercel DeployTarget
}

func NewOrchestrator(source SourceHost, vercel DeployTarget) *Orchestrator {
	return &Orchestrator{
		source: source,
		vercel: vercel,
	}
}

// Run executes both phases in order. The returned result is never nil; on failure
// its Error field holds the message of the returned error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	target, err := o.deployTarget(req.Provider)
	if err != nil {
		return o.fail(result, "resolve_provider", err)
	}

	repoName := RepoName(req.Name)

	pushed, err := o.source.PushFiles(ctx, sourcehost.PushRequest{
		Owner:         req.RepoOwner,
		Repo:          repoName,
		Files:         req.Files,
		CommitMessage: commitMessage,
		Private:       req.Private,
		Description:   req.Description,
	})
	if err != nil {
		return o.fail(result, "push_source", err)
	}
	result.RepoURL = pushed.RepoURL
	result.CommitHash = pushed.CommitHash

	deployed, err := target.Deploy(ctx, deploytarget.DeployRequest{
		ProjectName:  repoName,
		RepoOwner:    pushed.Owner,
		RepoName:     pushed.Repo,
		EnvVariables: req.EnvVariables,
	})
	if err != nil {
		return o.fail(result, "deploy", err)
	}

	result.Success = true
	result.DeploymentURL = deployed.URL
	result.DeploymentID = deployed.DeploymentID

	slog.Info("Pipeline completed",
		"repo_url", result.RepoURL,
		"deployment_url", result.DeploymentURL,
		"provider", req.Provider)
	return result, nil
}

func (o *Orchestrator) deployTarget(provider domain.DeployProvider) (DeployTarget, error) {
	switch provider {
	case domain.DeployProviderVercel:
		return o.vercel, nil
	case domain.DeployProviderNetlify, domain.DeployProviderGitHubPages:
		return nil, &NotImplementedError{Provider: provider}
	default:
		return nil, fmt.Errorf("unknown deploy provider: %q", provider)
	}
}

func (o *Orchestrator) fail(result *Result, operation string, err error) (*Result, error) {
	slog.Error("Pipeline failed",
		"layer", "pipeline",
		"operation", operation,
		"repo_url", result.RepoURL,
		"error", err)
	result.Success = false
	result.Error = err.Error()
	return result, err
}

// RepoName derives a repository name from a project name
func RepoName(projectName string) string {
	name := slug.Make(projectName)
	if len(name) > maxRepoName {
		name = name[:maxRepoName]
	}
	if name == "" {
		return defaultRepoName
	}
	return name
}
