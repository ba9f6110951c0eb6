// Package handlers provides the JSON API handlers and their shared helpers.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/auth"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/project"
)

// ProviderLister reports which LLM providers can be used
type ProviderLister interface {
	ConfiguredProviders() []llm.Name
	DefaultProvider() llm.Name
}

// Handlers serves the /api endpoints
type Handlers struct {
	projects        project.ProjectManager
	auditRecorder   *audit.Recorder
	llmProviders    ProviderLister
	deployProviders []domain.DeployProvider
	version         string
}

func New(
	projects project.ProjectManager,
	auditRecorder *audit.Recorder,
	llmProviders ProviderLister,
	deployProviders []domain.DeployProvider,
	version string,
) *Handlers {
	return &Handlers{
		projects:        projects,
		auditRecorder:   auditRecorder,
		llmProviders:    llmProviders,
		deployProviders: deployProviders,
		version:         version,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ParseID extracts and validates a UUID URL parameter
func ParseID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return uuid.Nil, &project.ValidationError{Field: param, Message: "is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &project.ValidationError{Field: param, Message: "must be a UUID"}
	}
	return id, nil
}

// WriteJSON writes v with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response",
			"layer", "handlers",
			"error", err)
	}
}

// WriteError maps err to a status code and writes it as a JSON error body
func WriteError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		LogOperationError(operation, "handlers", err, "path", r.URL.Path, "status", status)
	}
	WriteJSON(w, status, errorResponse{Error: MessageForError(err, status)})
}

// Unauthorized is the auth middleware rejection writer
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, "authenticate", err)
}

// LogOperationError logs operation errors with consistent formatting
func LogOperationError(operation, layer string, err error, extraFields ...any) {
	fields := []any{
		"layer", layer,
		"operation", operation,
		"error", err,
	}
	fields = append(fields, extraFields...)
	slog.Error("Operation failed", fields...)
}

var errNoPrincipal = errors.New("request is not authenticated")

func principalFrom(r *http.Request) (domain.Principal, error) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return domain.Principal{}, errNoPrincipal
	}
	return principal, nil
}

// withPrincipal adapts a handler that needs the authenticated principal
func withPrincipal(operation string, fn func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFrom(r)
		if err != nil {
			WriteError(w, r, operation, err)
			return
		}
		if err := fn(w, r, principal); err != nil {
			WriteError(w, r, operation, err)
		}
	}
}
