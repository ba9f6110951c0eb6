package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/project"
)

const maxAuditLimit = 500

type providersResponse struct {
	LLM     []llm.Name              `json:"llm"`
	Default llm.Name                `json:"default_llm"`
	Deploy  []domain.DeployProvider `json:"deploy"`
}

// Health handles GET /health
func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": h.version,
		})
	}
}

// Providers handles GET /api/providers
func (h *Handlers) Providers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		llmNames := h.llmProviders.ConfiguredProviders()
		if llmNames == nil {
			llmNames = []llm.Name{}
		}
		deploy := h.deployProviders
		if deploy == nil {
			deploy = []domain.DeployProvider{}
		}
		WriteJSON(w, http.StatusOK, providersResponse{
			LLM:     llmNames,
			Default: h.llmProviders.DefaultProvider(),
			Deploy:  deploy,
		})
	}
}

// ListAudit handles GET /api/audit
func (h *Handlers) ListAudit() http.HandlerFunc {
	return withPrincipal("list_audit", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		filter, err := parseAuditFilter(r)
		if err != nil {
			return err
		}
		entries, err := h.auditRecorder.List(filter)
		if err != nil {
			return err
		}
		views := make([]AuditEntryView, len(entries))
		for i, e := range entries {
			views[i] = ConvertAuditEntryToView(e)
		}
		WriteJSON(w, http.StatusOK, views)
		return nil
	})
}

// AnonymizeAudit handles DELETE /api/users/{id}/audit
func (h *Handlers) AnonymizeAudit() http.HandlerFunc {
	return withPrincipal("anonymize_audit", func(w http.ResponseWriter, r *http.Request, principal domain.Principal) error {
		userID, err := ParseID(r, "id")
		if err != nil {
			return err
		}
		count, err := h.auditRecorder.Anonymize(userID)
		if err != nil {
			return err
		}

		_ = h.auditRecorder.Record(r.Context(), audit.Entry{
			Actor:        &principal,
			Action:       domain.AuditActionUpdate,
			ResourceType: domain.AuditResourceUser,
			ResourceID:   userID.String(),
			Details:      map[string]any{"anonymized_entries": count},
			Severity:     domain.AuditSeverityWarning,
			Category:     domain.AuditCategorySecurity,
		})

		WriteJSON(w, http.StatusOK, map[string]int64{"anonymized": count})
		return nil
	})
}

func parseAuditFilter(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Action:       strings.ToUpper(q.Get("action")),
		Severity:     domain.AuditSeverity(strings.ToUpper(q.Get("severity"))),
		Limit:        100,
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, &project.ValidationError{Field: "user_id", Message: "must be a UUID"}
		}
		filter.UserID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, &project.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
		filter.Limit = min(limit, maxAuditLimit)
	}
	return filter, nil
}
