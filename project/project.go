// Package project provides project management services for Shipyard.
package project

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/codegen"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/repository"
)

// ProjectService manages projects and drives their generation and deployment flows.
type ProjectService struct {
	projectRepository    repository.ProjectRepository
	generationRepository repository.GenerationRepository
	deploymentRepository repository.DeploymentRepository
	auditRecorder        *audit.Recorder
	llm                  LLMGateway
	parser               codegen.ResponseParser
	pipeline             PipelineRunner
}

// Ensure ProjectService implements ProjectManager
var _ ProjectManager = (*ProjectService)(nil)

type CreateInput struct {
	Name        string
	Description *string
	TechStack   []domain.TechStackItem
	Prompt      *string
}

// UpdateInput changes only the non-nil fields
type UpdateInput struct {
	Name        *string
	Description *string
	TechStack   *[]domain.TechStackItem
	Prompt      *string
}

// List returns the principal's projects, or every project for administrators
func (s *ProjectService) List(principal domain.Principal, status *domain.ProjectStatus) ([]*domain.Project, error) {
	filter := repository.ProjectFilter{Status: status}
	if !principal.IsAdmin() {
		filter.OwnerID = &principal.ID
	}

	projects, err := s.projectRepository.List(filter)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "list_projects",
			"error", err)
		return nil, err
	}
	return projects, nil
}

// Get retrieves a project the principal may access
func (s *ProjectService) Get(principal domain.Principal, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepository.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "get_project",
			"project_id", id,
			"error", err)
		return nil, err // Pass through as-is
	}
	if !principal.CanAccess(project) {
		slog.Warn("Project access denied",
			"layer", "service",
			"project_id", id,
			"principal_id", principal.ID)
		return nil, ErrForbidden
	}
	return project, nil
}

// Create creates a new DRAFT project owned by the principal
func (s *ProjectService) Create(ctx context.Context, principal domain.Principal, input CreateInput) (*domain.Project, error) {
	if err := validateFields(input.Name, input.Description, input.Prompt, input.TechStack); err != nil {
		return nil, err
	}

	p := domain.NewProject(principal.ID, strings.TrimSpace(input.Name), input.Description, input.TechStack, input.Prompt)
	created, err := s.projectRepository.Create(&p)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "create_project",
			"project_name", input.Name,
			"error", err)
		return nil, err
	}

	s.recordAudit(ctx, audit.Entry{
		Actor:        &principal,
		Action:       domain.AuditActionCreate,
		ResourceType: domain.AuditResourceProject,
		ResourceID:   created.ID.String(),
		NewValues:    projectSnapshot(created),
	})

	slog.Info("Project created", "project_id", created.ID, "project_name", created.Name)
	return created, nil
}

// Update changes project metadata. Projects with a running flow cannot be edited.
func (s *ProjectService) Update(ctx context.Context, principal domain.Principal, id uuid.UUID, input UpdateInput) (*domain.Project, error) {
	project, err := s.Get(principal, id)
	if err != nil {
		return nil, err
	}
	if isInProgress(project.Status) {
		return nil, ErrConcurrentModification
	}

	old := projectSnapshot(project)

	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		project.Description = input.Description
	}
	if input.TechStack != nil {
		project.TechStack = *input.TechStack
	}
	if input.Prompt != nil {
		project.Prompt = input.Prompt
	}
	if err := validateFields(project.Name, project.Description, project.Prompt, project.TechStack); err != nil {
		return nil, err
	}

	ok, err := s.projectRepository.UpdateMetadata(project)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "update_project",
			"project_id", id,
			"error", err)
		return nil, err
	}
	if !ok {
		// A flow took the project, or changed its status, after it was read
		slog.Warn("Project status changed during update",
			"layer", "service",
			"project_id", id,
			"status", project.Status)
		return nil, ErrConcurrentModification
	}

	s.recordAudit(ctx, audit.Entry{
		Actor:        &principal,
		Action:       domain.AuditActionUpdate,
		ResourceType: domain.AuditResourceProject,
		ResourceID:   id.String(),
		OldValues:    old,
		NewValues:    projectSnapshot(project),
	})
	return project, nil
}

// Remove deletes a project together with its generations and deployments
func (s *ProjectService) Remove(ctx context.Context, principal domain.Principal, id uuid.UUID) error {
	project, err := s.Get(principal, id)
	if err != nil {
		return err
	}

	if err := s.projectRepository.Delete(id); err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "remove_project",
			"project_id", id,
			"error", err)
		return err
	}

	s.recordAudit(ctx, audit.Entry{
		Actor:        &principal,
		Action:       domain.AuditActionDelete,
		ResourceType: domain.AuditResourceProject,
		ResourceID:   id.String(),
		OldValues:    projectSnapshot(project),
	})

	slog.Info("Project removed", "project_id", id)
	return nil
}

// ListGenerations returns the project's code generations, newest first
func (s *ProjectService) ListGenerations(principal domain.Principal, id uuid.UUID) ([]*domain.CodeGeneration, error) {
	if _, err := s.Get(principal, id); err != nil {
		return nil, err
	}
	generations, err := s.generationRepository.ListByProjectID(id)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "list_generations",
			"project_id", id,
			"error", err)
		return nil, err
	}
	return generations, nil
}

// ListDeployments returns the project's deployments, newest first
func (s *ProjectService) ListDeployments(principal domain.Principal, id uuid.UUID) ([]*domain.Deployment, error) {
	if _, err := s.Get(principal, id); err != nil {
		return nil, err
	}
	deployments, err := s.deploymentRepository.ListByProjectID(id)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "list_deployments",
			"project_id", id,
			"error", err)
		return nil, err
	}

	slog.Debug("Deployments listed",
		"project_id", id,
		"deployment_count", len(deployments))
	return deployments, nil
}

// acquire moves the project into an in-progress status. Only one caller can win.
func (s *ProjectService) acquire(project *domain.Project, to domain.ProjectStatus) error {
	from := project.Status
	if isInProgress(from) {
		return ErrConcurrentModification
	}
	if err := domain.ValidateTransition(from, to); err != nil {
		return err
	}

	ok, err := s.projectRepository.CompareAndSwapStatus(project.ID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("Lost status race",
			"layer", "service",
			"project_id", project.ID,
			"from", from,
			"to", to)
		return ErrConcurrentModification
	}
	project.Status = to
	return nil
}

// failRun marks the project FAILED unless it already left the in-progress status
func (s *ProjectService) failRun(project *domain.Project, from domain.ProjectStatus) {
	project.Status = domain.ProjectStatusFailed
	ok, err := s.projectRepository.FinishRun(project, from)
	if err != nil {
		slog.Error("Failed to update project status to failed",
			"project_id", project.ID,
			"error", err)
		return
	}
	if !ok {
		slog.Warn("Project already left in-progress status",
			"layer", "service",
			"project_id", project.ID,
			"from", from)
	}
}

func (s *ProjectService) recordAudit(ctx context.Context, entry audit.Entry) {
	// Audit failures are logged by the recorder and never fail the operation
	_ = s.auditRecorder.Record(ctx, entry)
}

func isInProgress(status domain.ProjectStatus) bool {
	return status == domain.ProjectStatusGenerating || status == domain.ProjectStatusDeploying
}

func validateFields(name string, description, prompt *string, techStack []domain.TechStackItem) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	if err := ValidatePrompt(prompt); err != nil {
		return err
	}
	return ValidateTechStack(techStack)
}

func projectSnapshot(p *domain.Project) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.DescriptionStr(),
		"status":      p.Status.String(),
		"version":     p.Version,
	}
}

// NewProjectService creates a new ProjectService with dependency injection
func NewProjectService(
	projectRepository repository.ProjectRepository,
	generationRepository repository.GenerationRepository,
	deploymentRepository repository.DeploymentRepository,
	auditRecorder *audit.Recorder,
	llmGateway LLMGateway,
	parser codegen.ResponseParser,
	pipelineRunner PipelineRunner,
) *ProjectService {
	return &ProjectService{
		projectRepository:    projectRepository,
		generationRepository: generationRepository,
		deploymentRepository: deploymentRepository,
		auditRecorder:        auditRecorder,
		llm:                  llmGateway,
		parser:               parser,
		pipeline:             pipelineRunner,
	}
}
