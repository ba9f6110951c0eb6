package project

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/pipeline"
)

// ProjectManager defines the contract for project management operations
type ProjectManager interface {
	List(principal domain.Principal, status *domain.ProjectStatus) ([]*domain.Project, error)
	Get(principal domain.Principal, id uuid.UUID) (*domain.Project, error)
	Create(ctx context.Context, principal domain.Principal, input CreateInput) (*domain.Project, error)
	Update(ctx context.Context, principal domain.Principal, id uuid.UUID, input UpdateInput) (*domain.Project, error)
	Remove(ctx context.Context, principal domain.Principal, id uuid.UUID) error
	Generate(ctx context.Context, principal domain.Principal, id uuid.UUID, opts GenerateOptions) (*GenerateResult, error)
	Deploy(ctx context.Context, principal domain.Principal, id uuid.UUID, opts DeployOptions) (*pipeline.Result, error)
	ListGenerations(principal domain.Principal, id uuid.UUID) ([]*domain.CodeGeneration, error)
	ListDeployments(principal domain.Principal, id uuid.UUID) ([]*domain.Deployment, error)
	RecoverStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// LLMGateway resolves and calls LLM providers
type LLMGateway interface {
	Resolve(name string) (llm.Provider, error)
	Generate(ctx context.Context, name string, req llm.Request) (*llm.Response, error)
}

// PipelineRunner pushes and deploys generated files
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}
