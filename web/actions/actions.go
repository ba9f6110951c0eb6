// Package actions decodes API request bodies into project service inputs.
package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/project"
)

const maxBodyBytes = 1 << 20

// ProjectCreateRequest is the body of POST /api/projects
type ProjectCreateRequest struct {
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	TechStack   []domain.TechStackItem `json:"tech_stack"`
	Prompt      *string                `json:"prompt"`
}

// ProjectUpdateRequest is the body of PATCH /api/projects/{id}; absent fields are kept
type ProjectUpdateRequest struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	TechStack   *[]domain.TechStackItem `json:"tech_stack"`
	Prompt      *string                 `json:"prompt"`
}

// GenerateRequest is the body of POST /api/projects/{id}/generate
type GenerateRequest struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// DeployRequest is the body of POST /api/projects/{id}/deploy
type DeployRequest struct {
	Provider     string            `json:"provider"`
	EnvVariables map[string]string `json:"env_variables"`
	Private      *bool             `json:"private"`
}

// DecodeJSON reads a JSON body into dst. An empty body leaves dst unchanged.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &project.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func (req *ProjectCreateRequest) ToInput() project.CreateInput {
	return project.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		TechStack:   req.TechStack,
		Prompt:      req.Prompt,
	}
}

func (req *ProjectUpdateRequest) ToInput() project.UpdateInput {
	return project.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		TechStack:   req.TechStack,
		Prompt:      req.Prompt,
	}
}

func (req *GenerateRequest) ToOptions() project.GenerateOptions {
	return project.GenerateOptions{
		Prompt:   strings.TrimSpace(req.Prompt),
		Provider: strings.TrimSpace(req.Provider),
		Model:    strings.TrimSpace(req.Model),
	}
}

// ToOptions validates the provider name. Vercel is assumed when it is empty.
func (req *DeployRequest) ToOptions() (project.DeployOptions, error) {
	provider := domain.DeployProviderVercel
	if name := strings.TrimSpace(req.Provider); name != "" {
		parsed, err := domain.ParseDeployProvider(name)
		if err != nil {
			return project.DeployOptions{}, &project.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown deploy provider %q", name)}
		}
		provider = parsed
	}
	return project.DeployOptions{
		Provider:     provider,
		EnvVariables: req.EnvVariables,
		Private:      req.Private,
	}, nil
}

// ParseStatusFilter parses the optional ?status= query parameter
func ParseStatusFilter(r *http.Request) (*domain.ProjectStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := domain.ParseProjectStatus(strings.ToUpper(raw))
	if err != nil {
		return nil, &project.ValidationError{Field: "status", Message: err.Error()}
	}
	return &status, nil
}
