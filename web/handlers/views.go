package handlers

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/domain"
)

type ProjectView struct {
	ID             uuid.UUID              `json:"id"`
	OwnerID        uuid.UUID              `json:"owner_id"`
	Name           string                 `json:"name"`
	Description    *string                `json:"description,omitempty"`
	TechStack      []domain.TechStackItem `json:"tech_stack"`
	Prompt         *string                `json:"prompt,omitempty"`
	Status         string                 `json:"status"`
	Version        int                    `json:"version"`
	GitHubRepo     *string                `json:"github_repo,omitempty"`
	DeploymentURL  *string                `json:"deployment_url,omitempty"`
	LastDeployedAt *time.Time             `json:"last_deployed_at,omitempty"`
	FileCount      int                    `json:"file_count"`
	Files          []domain.GeneratedFile `json:"files,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ConvertProjectToView builds the API view of a project. Files are included only when withFiles is set.
func ConvertProjectToView(p *domain.Project, withFiles bool) ProjectView {
	techStack := p.TechStack
	if techStack == nil {
		techStack = []domain.TechStackItem{}
	}
	view := ProjectView{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		Description:    p.Description,
		TechStack:      techStack,
		Prompt:         p.Prompt,
		Status:         p.Status.String(),
		Version:        p.Version,
		GitHubRepo:     p.GitHubRepo,
		DeploymentURL:  p.DeploymentURL,
		LastDeployedAt: p.LastDeployedAt,
		FileCount:      len(p.GeneratedFiles),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if withFiles {
		view.Files = p.GeneratedFiles
	}
	return view
}

func ConvertProjectsToViews(projects []*domain.Project) []ProjectView {
	views := make([]ProjectView, len(projects))
	for i, p := range projects {
		views[i] = ConvertProjectToView(p, false)
	}
	return views
}

type GenerationView struct {
	ID           uuid.UUID          `json:"id"`
	ProjectID    uuid.UUID          `json:"project_id"`
	Provider     string             `json:"provider"`
	Model        string             `json:"model"`
	Status       string             `json:"status"`
	FileCount    int                `json:"file_count"`
	Usage        *domain.TokenUsage `json:"usage,omitempty"`
	DurationMs   *int64             `json:"duration_ms,omitempty"`
	ErrorMessage *string            `json:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

func ConvertGenerationToView(g *domain.CodeGeneration) GenerationView {
	return GenerationView{
		ID:           g.ID,
		ProjectID:    g.ProjectID,
		Provider:     g.Provider,
		Model:        g.Model,
		Status:       g.Status.String(),
		FileCount:    len(g.Output),
		Usage:        g.Usage,
		DurationMs:   g.DurationMs,
		ErrorMessage: g.ErrorMessage,
		CreatedAt:    g.CreatedAt,
		CompletedAt:  g.CompletedAt,
	}
}

// DeploymentView lists environment variable names only, values never leave the server
type DeploymentView struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	Provider     string     `json:"provider"`
	Status       string     `json:"status"`
	URL          *string    `json:"url,omitempty"`
	RepoURL      *string    `json:"repo_url,omitempty"`
	ExternalID   *string    `json:"external_id,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	EnvKeys      []string   `json:"env_keys"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func ConvertDeploymentToView(d *domain.Deployment) DeploymentView {
	keys := make([]string, 0, len(d.EnvVariables))
	for k := range d.EnvVariables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return DeploymentView{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		Provider:     d.Provider.String(),
		Status:       d.Status.String(),
		URL:          d.URL,
		RepoURL:      d.RepoURL,
		ExternalID:   d.ExternalID,
		ErrorMessage: d.ErrorMessage,
		EnvKeys:      keys,
		StartedAt:    d.StartedAt,
		CompletedAt:  d.CompletedAt,
	}
}

type AuditEntryView struct {
	ID           uuid.UUID      `json:"id"`
	UserID       *uuid.UUID     `json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	OldValues    map[string]any `json:"old_values,omitempty"`
	NewValues    map[string]any `json:"new_values,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Severity     string         `json:"severity"`
	Category     string         `json:"category"`
	IPAddress    *string        `json:"ip_address,omitempty"`
	UserAgent    *string        `json:"user_agent,omitempty"`
	RequestID    *string        `json:"request_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func ConvertAuditEntryToView(e *domain.AuditLogEntry) AuditEntryView {
	return AuditEntryView{
		ID:           e.ID,
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		OldValues:    e.OldValues,
		NewValues:    e.NewValues,
		Details:      e.Details,
		Severity:     string(e.Severity),
		Category:     string(e.Category),
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		RequestID:    e.RequestID,
		CreatedAt:    e.CreatedAt,
	}
}
