// Package repository provides the data access layer for projects, generations, deployments, users and audit logs.
package repository

import (
	"encoding/json"
	"log/slog"

	"github.com/oar-cd/shipyard/db"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/encryption"
)

type ProjectMapper struct{}

func (m *ProjectMapper) ToDomain(p *db.ProjectModel) *domain.Project {
	status, err := domain.ParseProjectStatus(p.Status)
	if err != nil {
		status = domain.ProjectStatusUnknown
	}

	var techStack []domain.TechStackItem
	decodeJSON(p.TechStack, &techStack, "tech_stack", p.ID.String())

	var files []domain.GeneratedFile
	if p.GeneratedFiles != nil {
		files = []domain.GeneratedFile{}
		decodeJSON(*p.GeneratedFiles, &files, "generated_files", p.ID.String())
	}

	return &domain.Project{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		Description:    p.Description,
		TechStack:      techStack,
		Prompt:         p.Prompt,
		GeneratedFiles: files,
		GitHubRepo:     p.GitHubRepo,
		DeploymentURL:  p.DeploymentURL,
		Version:        p.Version,
		Status:         status,
		LastDeployedAt: p.LastDeployedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (m *ProjectMapper) ToModel(p *domain.Project) *db.ProjectModel {
	techStack := p.TechStack
	if techStack == nil {
		techStack = []domain.TechStackItem{}
	}

	var files *string
	if p.GeneratedFiles != nil {
		encoded := encodeJSON(p.GeneratedFiles)
		files = &encoded
	}

	return &db.ProjectModel{
		BaseModel: db.BaseModel{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		Description:    p.Description,
		TechStack:      encodeJSON(techStack),
		Prompt:         p.Prompt,
		GeneratedFiles: files,
		GitHubRepo:     p.GitHubRepo,
		DeploymentURL:  p.DeploymentURL,
		Version:        p.Version,
		Status:         p.Status.String(),
		LastDeployedAt: p.LastDeployedAt,
	}
}

type GenerationMapper struct{}

func (m *GenerationMapper) ToDomain(g *db.CodeGenerationModel) *domain.CodeGeneration {
	status, err := domain.ParseGenerationStatus(g.Status)
	if err != nil {
		status = domain.GenerationStatusUnknown
	}

	var output []domain.GeneratedFile
	if g.Output != nil {
		output = []domain.GeneratedFile{}
		decodeJSON(*g.Output, &output, "output", g.ID.String())
	}

	var usage *domain.TokenUsage
	if g.InputTokens != nil || g.OutputTokens != nil {
		usage = &domain.TokenUsage{}
		if g.InputTokens != nil {
			usage.InputTokens = *g.InputTokens
		}
		if g.OutputTokens != nil {
			usage.OutputTokens = *g.OutputTokens
		}
	}

	return &domain.CodeGeneration{
		ID:           g.ID,
		ProjectID:    g.ProjectID,
		Prompt:       g.Prompt,
		Model:        g.Model,
		Provider:     g.Provider,
		Output:       output,
		Usage:        usage,
		DurationMs:   g.DurationMs,
		Status:       status,
		ErrorMessage: g.ErrorMessage,
		CreatedAt:    g.CreatedAt,
		CompletedAt:  g.CompletedAt,
	}
}

func (m *GenerationMapper) ToModel(g *domain.CodeGeneration) *db.CodeGenerationModel {
	modelObj := &db.CodeGenerationModel{
		BaseModel: db.BaseModel{
			ID:        g.ID,
			CreatedAt: g.CreatedAt,
		},
		ProjectID:    g.ProjectID,
		Prompt:       g.Prompt,
		Model:        g.Model,
		Provider:     g.Provider,
		DurationMs:   g.DurationMs,
		Status:       g.Status.String(),
		ErrorMessage: g.ErrorMessage,
		CompletedAt:  g.CompletedAt,
	}

	if g.Output != nil {
		encoded := encodeJSON(g.Output)
		modelObj.Output = &encoded
	}
	if g.Usage != nil {
		in, out := g.Usage.InputTokens, g.Usage.OutputTokens
		modelObj.InputTokens = &in
		modelObj.OutputTokens = &out
	}

	return modelObj
}

type DeploymentMapper struct {
	encryption *encryption.EncryptionService
}

func NewDeploymentMapper(encryptionSvc *encryption.EncryptionService) *DeploymentMapper {
	return &DeploymentMapper{encryption: encryptionSvc}
}

func (m *DeploymentMapper) ToDomain(d *db.DeploymentModel) *domain.Deployment {
	status, err := domain.ParseDeploymentStatus(d.Status)
	if err != nil {
		status = domain.DeploymentStatusUnknown
	}

	var envVars map[string]string
	if d.EnvVariables != nil && m.encryption != nil {
		envVars, err = m.encryption.DecryptEnvVariables(*d.EnvVariables)
		if err != nil {
			// The deployment record stays readable even if the key changed
			slog.Error("Failed to decrypt deployment env variables",
				"deployment_id", d.ID,
				"project_id", d.ProjectID,
				"error", err)
			envVars = nil
		}
	}

	return &domain.Deployment{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		Provider:     domain.DeployProvider(d.Provider),
		Status:       status,
		URL:          d.URL,
		RepoURL:      d.RepoURL,
		ExternalID:   d.ExternalID,
		ErrorMessage: d.ErrorMessage,
		EnvVariables: envVars,
		StartedAt:    d.StartedAt,
		CompletedAt:  d.CompletedAt,
	}
}

func (m *DeploymentMapper) ToModel(d *domain.Deployment) (*db.DeploymentModel, error) {
	modelObj := &db.DeploymentModel{
		BaseModel:    db.BaseModel{ID: d.ID},
		ProjectID:    d.ProjectID,
		Provider:     d.Provider.String(),
		Status:       d.Status.String(),
		URL:          d.URL,
		RepoURL:      d.RepoURL,
		ExternalID:   d.ExternalID,
		ErrorMessage: d.ErrorMessage,
		StartedAt:    d.StartedAt,
		CompletedAt:  d.CompletedAt,
	}

	if len(d.EnvVariables) > 0 && m.encryption != nil {
		encrypted, err := m.encryption.EncryptEnvVariables(d.EnvVariables)
		if err != nil {
			return nil, err
		}
		modelObj.EnvVariables = &encrypted
	}

	return modelObj, nil
}

type UserMapper struct{}

func (m *UserMapper) ToDomain(u *db.UserModel) *domain.User {
	role, err := domain.ParseRole(u.Role)
	if err != nil {
		role = domain.RoleUser
	}
	return &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      role,
		CreatedAt: u.CreatedAt,
	}
}

func (m *UserMapper) ToModel(u *domain.User) *db.UserModel {
	return &db.UserModel{
		BaseModel: db.BaseModel{ID: u.ID, CreatedAt: u.CreatedAt},
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
	}
}

type AuditMapper struct{}

func (m *AuditMapper) ToDomain(a *db.AuditLogModel) *domain.AuditLogEntry {
	entry := &domain.AuditLogEntry{
		ID:           a.ID,
		UserID:       a.UserID,
		Action:       a.Action,
		ResourceType: a.ResourceType,
		ResourceID:   a.ResourceID,
		Severity:     domain.AuditSeverity(a.Severity),
		Category:     domain.AuditCategory(a.Category),
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
		RequestID:    a.RequestID,
		CreatedAt:    a.CreatedAt,
	}
	entry.OldValues = decodeValues(a.OldValues, a.ID.String())
	entry.NewValues = decodeValues(a.NewValues, a.ID.String())
	entry.Details = decodeValues(a.Details, a.ID.String())
	return entry
}

func (m *AuditMapper) ToModel(a *domain.AuditLogEntry) *db.AuditLogModel {
	return &db.AuditLogModel{
		ID:           a.ID,
		UserID:       a.UserID,
		Action:       a.Action,
		ResourceType: a.ResourceType,
		ResourceID:   a.ResourceID,
		OldValues:    encodeValues(a.OldValues),
		NewValues:    encodeValues(a.NewValues),
		Details:      encodeValues(a.Details),
		Severity:     string(a.Severity),
		Category:     string(a.Category),
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
		RequestID:    a.RequestID,
		CreatedAt:    a.CreatedAt,
	}
}

func encodeJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode column", "error", err)
		return "null"
	}
	return string(data)
}

func decodeJSON(data string, v any, column, id string) {
	if data == "" {
		return
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		slog.Error("Failed to decode column",
			"column", column,
			"id", id,
			"error", err)
	}
}

func encodeValues(values map[string]any) *string {
	if values == nil {
		return nil
	}
	encoded := encodeJSON(values)
	return &encoded
}

func decodeValues(data *string, id string) map[string]any {
	if data == nil {
		return nil
	}
	var values map[string]any
	decodeJSON(*data, &values, "audit_values", id)
	return values
}
