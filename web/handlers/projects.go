package handlers

import (
	"net/http"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/web/actions"
)

type deployFailureResponse struct {
	Error  string           `json:"error"`
	Result *pipeline.Result `json:"result,omitempty"`
}

// ListProjects handles GET /api/projects
func (h *Handlers) ListProjects() http.HandlerFunc {
	return withPrincipal("list_projects", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		status, err := actions.ParseStatusFilter(r)
		if err != nil {
			return err
		}
		projects, err := h.projects.List(principal, status)
		if err != nil {
			return err
		}
		WriteJSON(w, http.StatusOK, ConvertProjectsToViews(projects))
		return nil
	})
}

// CreateProject handles POST /api/projects
func (h *Handlers) CreateProject() http.HandlerFunc {
	return withPrincipal("create_project", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		var req actions.ProjectCreateRequest
		if err := actions.DecodeJSON(r, &req); err != nil {
			return err
		}
		created, err := h.projects.Create(r.Context(), principal, req.ToInput())
		if err != nil {
			return err
		}
		WriteJSON(w, http.StatusCreated, ConvertProjectToView(created, false))
		return nil
	})
}

// GetProject handles GET /api/projects/{id}
func (h *Handlers) GetProject() http.HandlerFunc {
	return withPrincipal("get_project", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		p, err := h.projects.Get(principal, id)
		if err != nil {
			return err
		}
		WriteJSON(w, http.StatusOK, ConvertProjectToView(p, true))
		return nil
	})
}

// UpdateProject handles PATCH /api/projects/{id}
func (h *Handlers) UpdateProject() http.HandlerFunc {
	return withPrincipal("update_project", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		var req actions.ProjectUpdateRequest
		if err := actions.DecodeJSON(r, &req); err != nil {
			return err
		}
		updated, err := h.projects.Update(r.Context(), principal, id, req.ToInput())
		if err != nil {
			return err
		}
		WriteJSON(w, http.StatusOK, ConvertProjectToView(updated, false))
		return nil
	})
}

// DeleteProject handles DELETE /api/projects/{id}
func (h *Handlers) DeleteProject() http.HandlerFunc {
	return withPrincipal("delete_project", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		if err := h.projects.Remove(r.Context(), principal, id); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

// GenerateProject handles POST /api/projects/{id}/generate
func (h *Handlers) GenerateProject() http.HandlerFunc {
	return withPrincipal("generate_project", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		var req actions.GenerateRequest
		if err := actions.DecodeJSON(r, &req); err != nil {
			return err
		}
		result, err := h.projects.Generate(r.Context(), principal, id, req.ToOptions())
		if err != nil {
			return err
		}
		WriteJSON(w, http.StatusOK, result)
		return nil
	})
}

// DeployProject handles POST /api/projects/{id}/deploy. Failed runs include the
// partial pipeline result so callers can see a repository that was already pushed.
func (h *Handlers) DeployProject() http.HandlerFunc {
	return withPrincipal("deploy_project", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		var req actions.DeployRequest
		if err := actions.DecodeJSON(r, &req); err != nil {
			return err
		}
		opts, err := req.ToOptions()
		if err != nil {
			return err
		}

		result, err := h.projects.Deploy(r.Context(), principal, id, opts)
		if err != nil {
			if result == nil {
				return err
			}
			status := StatusForError(err)
			if status >= http.StatusInternalServerError {
				LogOperationError("deploy_project", "handlers", err, "project_id", id, "status", status)
			}
			WriteJSON(w, status, deployFailureResponse{Error: MessageForError(err, status), Result: result})
			return nil
		}
		WriteJSON(w, http.StatusOK, result)
		return nil
	})
}

// ListGenerations handles GET /api/projects/{id}/generations
func (h *Handlers) ListGenerations() http.HandlerFunc {
	return withPrincipal("list_generations", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		generations, err := h.projects.ListGenerations(principal, id)
		if err != nil {
			return err
		}
		views := make([]GenerationView, len(generations))
		for i, g := range generations {
			views[i] = ConvertGenerationToView(g)
		}
		WriteJSON(w, http.StatusOK, views)
		return nil
	})
}

// ListDeployments handles GET /api/projects/{id}/deployments
func (h *Handlers) ListDeployments() http.HandlerFunc {
	return withPrincipal("list_deployments", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		id, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		deployments, err := h.projects.ListDeployments(principal, id)
		if err != nil {
			return err
		}
		views := make([]DeploymentView, len(deployments))
		for i, d := range deployments {
			views[i] = ConvertDeploymentToView(d)
		}
		WriteJSON(w, http.StatusOK, views)
		return nil
	})
}
