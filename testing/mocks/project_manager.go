package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
)

// MockProjectManager implements the ProjectManager interface for testing
type MockProjectManager struct {
	ListFunc            func(principal domain.Principal, status *domain.ProjectStatus) ([]*domain.Project, error)
	GetFunc             func(principal domain.Principal, id uuid.UUID) (*domain.Project, error)
	CreateFunc          func(principal domain.Principal, input project.CreateInput) (*domain.Project, error)
	UpdateFunc          func(principal domain.Principal, id uuid.UUID, input project.UpdateInput) (*domain.Project, error)
	RemoveFunc          func(principal domain.Principal, id uuid.UUID) error
	GenerateFunc        func(principal domain.Principal, id uuid.UUID, opts project.GenerateOptions) (*project.GenerateResult, error)
	DeployFunc          func(principal domain.Principal, id uuid.UUID, opts project.DeployOptions) (*pipeline.Result, error)
	ListGenerationsFunc func(principal domain.Principal, id uuid.UUID) ([]*domain.CodeGeneration, error)
	ListDeploymentsFunc func(principal domain.Principal, id uuid.UUID) ([]*domain.Deployment, error)
	RecoverStaleFunc    func(olderThan time.Duration) (int, error)
}

var _ project.ProjectManager = (*MockProjectManager)(nil)

func (m *MockProjectManager) List(principal domain.Principal, status *domain.ProjectStatus) ([]*domain.Project, error) {
	if m.ListFunc != nil {
		return m.ListFunc(principal, status)
	}
	return []*domain.Project{}, nil
}

func (m *MockProjectManager) Get(principal domain.Principal, id uuid.UUID) (*domain.Project, error) {
	if m.GetFunc != nil {
		return m.GetFunc(principal, id)
	}
	return &domain.Project{ID: id, OwnerID: principal.ID}, nil
}

func (m *MockProjectManager) Create(ctx context.Context, principal domain.Principal, input project.CreateInput) (*domain.Project, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(principal, input)
	}
	p := domain.NewProject(principal.ID, input.Name, input.Description, input.TechStack, input.Prompt)
	return &p, nil
}

func (m *MockProjectManager) Update(ctx context.Context, principal domain.Principal, id uuid.UUID, input project.UpdateInput) (*domain.Project, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(principal, id, input)
	}
	return &domain.Project{ID: id, OwnerID: principal.ID}, nil
}

func (m *MockProjectManager) Remove(ctx context.Context, principal domain.Principal, id uuid.UUID) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(principal, id)
	}
	return nil
}

func (m *MockProjectManager) Generate(ctx context.Context, principal domain.Principal, id uuid.UUID, opts project.GenerateOptions) (*project.GenerateResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(principal, id, opts)
	}
	return &project.GenerateResult{GenerationID: uuid.New()}, nil
}

func (m *MockProjectManager) Deploy(ctx context.Context, principal domain.Principal, id uuid.UUID, opts project.DeployOptions) (*pipeline.Result, error) {
	if m.DeployFunc != nil {
		return m.DeployFunc(principal, id, opts)
	}
	return &pipeline.Result{Success: true}, nil
}

func (m *MockProjectManager) ListGenerations(principal domain.Principal, id uuid.UUID) ([]*domain.CodeGeneration, error) {
	if m.ListGenerationsFunc != nil {
		return m.ListGenerationsFunc(principal, id)
	}
	return []*domain.CodeGeneration{}, nil
}

func (m *MockProjectManager) ListDeployments(principal domain.Principal, id uuid.UUID) ([]*domain.Deployment, error) {
	if m.ListDeploymentsFunc != nil {
		return m.ListDeploymentsFunc(principal, id)
	}
	return []*domain.Deployment{}, nil
}

func (m *MockProjectManager) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if m.RecoverStaleFunc != nil {
		return m.RecoverStaleFunc(olderThan)
	}
	return 0, nil
}
