package project

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/pipeline"
)

type DeployOptions struct {
	Provider     domain.DeployProvider
	EnvVariables map[string]string
	Private      *bool // repositories are private unless set to false
}

func (o DeployOptions) private() bool {
	return o.Private == nil || *o.Private
}

// Deploy pushes the generated files and deploys them. The project must have been
// generated; any failure after it entered DEPLOYING leaves it FAILED.
func (s *ProjectService) Deploy(ctx context.Context, principal domain.Principal, id uuid.UUID, opts DeployOptions) (result *pipeline.Result, err error) {
	project, err := s.Get(principal, id)
	if err != nil {
		return nil, err
	}
	if !opts.Provider.IsValid() {
		return nil, &ValidationError{Field: "provider", Message: fmt.Sprintf("unknown deploy provider %q", opts.Provider)}
	}
	if err := ValidateEnvVariables(opts.EnvVariables); err != nil {
		return nil, err
	}
	if isInProgress(project.Status) {
		return nil, ErrConcurrentModification
	}
	if !canDeploy(project) {
		slog.Warn("Deployment refused",
			"layer", "service",
			"project_id", project.ID,
			"status", project.Status)
		return nil, ErrNotGenerated
	}

	if err := s.acquire(project, domain.ProjectStatusDeploying); err != nil {
		return nil, err
	}

	deployment := domain.NewDeployment(project.ID, opts.Provider, opts.EnvVariables)
	finished := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during deployment: %v", r)
		}
		if !finished {
			if err == nil {
				err = fmt.Errorf("deployment did not complete")
			}
			if result == nil {
				result = &pipeline.Result{}
			}
			result.Success = false
			result.DeploymentURL = ""
			result.Error = err.Error()
			err = s.handleDeploymentError(ctx, principal, project, &deployment, result, err)
		}
	}()

	if err := s.deploymentRepository.Create(&deployment); err != nil {
		return nil, err
	}

	deployment.Status = domain.DeploymentStatusBuilding
	if _, err := s.deploymentRepository.UpdateUnfinished(&deployment); err != nil {
		return nil, err
	}

	slog.Info("Deploying project",
		"project_id", project.ID,
		"deployment_id", deployment.ID,
		"provider", opts.Provider)

	result, err = s.pipeline.Run(ctx, pipeline.Request{
		Files:        project.GeneratedFiles,
		Name:         project.Name,
		Description:  project.DescriptionStr(),
		Private:      opts.private(),
		Provider:     opts.Provider,
		EnvVariables: opts.EnvVariables,
	})
	if err != nil {
		return result, err
	}

	deployment.Succeed(result.DeploymentURL, result.RepoURL, result.DeploymentID)

	// Same ordering as generation: claim the project row, then the deployment
	now := time.Now()
	deploymentURL, repoURL := result.DeploymentURL, result.RepoURL
	deployed := *project
	deployed.DeploymentURL = &deploymentURL
	deployed.GitHubRepo = &repoURL
	deployed.LastDeployedAt = &now
	if err := deployed.TransitionTo(domain.ProjectStatusDeployed); err != nil {
		return result, err
	}
	ok, err := s.projectRepository.FinishRun(&deployed, domain.ProjectStatusDeploying)
	if err != nil {
		return result, err
	}
	if !ok {
		finished = true
		slog.Warn("Dropping late deployment result",
			"layer", "service",
			"project_id", project.ID,
			"deployment_id", deployment.ID,
			"deployment_url", result.DeploymentURL)
		result.Success = false
		result.DeploymentURL = ""
		result.Error = ErrRunInterrupted.Error()
		return result, &FlowError{Operation: "deployment", Err: ErrRunInterrupted}
	}
	*project = deployed
	finished = true

	if _, err := s.deploymentRepository.UpdateUnfinished(&deployment); err != nil {
		slog.Error("Failed to update deployment record as succeeded",
			"project_id", project.ID,
			"deployment_id", deployment.ID,
			"error", err)
	}

	s.recordAudit(ctx, audit.Entry{
		Actor:        &principal,
		Action:       domain.AuditActionCreate,
		ResourceType: domain.AuditResourceDeployment,
		ResourceID:   deployment.ID.String(),
		NewValues: map[string]any{
			"project_id":     project.ID.String(),
			"status":         deployment.Status.String(),
			"deployment_url": result.DeploymentURL,
			"repo_url":       result.RepoURL,
		},
		Details: map[string]any{
			"provider":      string(opts.Provider),
			"external_id":   result.DeploymentID,
			"commit":        result.CommitHash,
			"env_var_count": len(opts.EnvVariables),
		},
		Severity: domain.AuditSeverityInfo,
		Category: domain.AuditCategoryDataAccess,
	})

	slog.Info("Project deployed",
		"project_id", project.ID,
		"deployment_id", deployment.ID,
		"deployment_url", result.DeploymentURL)
	return result, nil
}

// canDeploy reports whether the project has generated code it may deploy.
// FAILED projects with files may retry a deployment.
func canDeploy(project *domain.Project) bool {
	if !project.HasGeneratedFiles() {
		return false
	}
	switch project.Status {
	case domain.ProjectStatusGenerated, domain.ProjectStatusDeployed, domain.ProjectStatusFailed:
		return true
	default:
		return false
	}
}

// handleDeploymentError handles deployment errors consistently
func (s *ProjectService) handleDeploymentError(
	ctx context.Context,
	principal domain.Principal,
	project *domain.Project,
	deployment *domain.Deployment,
	result *pipeline.Result,
	err error,
) error {
	repoURL := result.RepoURL
	if repoURL != "" {
		deployment.RepoURL = &repoURL
	}
	deployment.Fail(err.Error())
	if _, updateErr := s.deploymentRepository.UpdateUnfinished(deployment); updateErr != nil {
		slog.Error("Failed to update deployment record as failed",
			"deployment_id", deployment.ID,
			"project_id", deployment.ProjectID,
			"error", updateErr)
	}

	if repoURL != "" {
		project.GitHubRepo = &repoURL
	}
	s.failRun(project, domain.ProjectStatusDeploying)

	_ = s.auditRecorder.RecordError(ctx, &principal, domain.AuditResourceDeployment, deployment.ID.String(), err, map[string]any{
		"project_id": project.ID.String(),
		"provider":   string(deployment.Provider),
		"repo_url":   result.RepoURL,
	})

	slog.Error("Deployment failed",
		"project_id", deployment.ProjectID,
		"deployment_id", deployment.ID,
		"error", err)
	return &FlowError{Operation: "deployment", Err: err}
}
