// Package domain provides core domain types and entities for Shipyard.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TechStackCategory groups a tech stack item by the layer it belongs to
type TechStackCategory string

const (
	TechStackFrontend TechStackCategory = "frontend"
	TechStackBackend  TechStackCategory = "backend"
	TechStackDatabase TechStackCategory = "database"
	TechStackDevOps   TechStackCategory = "devops"
	TechStackTesting  TechStackCategory = "testing"
	TechStackOther    TechStackCategory = "other"
)

// IsValid checks if the TechStackCategory is known
func (c TechStackCategory) IsValid() bool {
	switch c {
	case TechStackFrontend, TechStackBackend, TechStackDatabase, TechStackDevOps, TechStackTesting, TechStackOther:
		return true
	default:
		return false
	}
}

type TechStackItem struct {
	Name     string            `json:"name"`
	Category TechStackCategory `json:"category"`
	Version  *string           `json:"version,omitempty"`
}

// GeneratedFile is one file produced by a code generation run
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the sum of input and output tokens
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

type Project struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	Description    *string
	TechStack      []TechStackItem
	Prompt         *string
	GeneratedFiles []GeneratedFile // nil until the project has been generated at least once
	GitHubRepo     *string
	DeploymentURL  *string // set only after a successful deployment
	Version        int
	Status         ProjectStatus
	LastDeployedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Project) DescriptionStr() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

func (p *Project) PromptStr() string {
	if p.Prompt == nil {
		return ""
	}
	return *p.Prompt
}

func (p *Project) DeploymentURLStr() string {
	if p.DeploymentURL == nil {
		return ""
	}
	return *p.DeploymentURL
}

func (p *Project) GitHubRepoStr() string {
	if p.GitHubRepo == nil {
		return ""
	}
	return *p.GitHubRepo
}

// HasGeneratedFiles reports whether there is generated code to deploy
func (p *Project) HasGeneratedFiles() bool {
	return len(p.GeneratedFiles) > 0
}

// TransitionTo moves the project to the given status if the transition table allows it
func (p *Project) TransitionTo(status ProjectStatus) error {
	if err := ValidateTransition(p.Status, status); err != nil {
		return fmt.Errorf("project %s: %w", p.ID, err)
	}
	p.Status = status
	return nil
}

func NewProject(ownerID uuid.UUID, name string, description *string, techStack []TechStackItem, prompt *string) Project {
	return Project{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		TechStack:   techStack,
		Prompt:      prompt,
		Version:     1,
		Status:      ProjectStatusDraft,
	}
}
