// Package audit records append-only audit log entries.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/repository"
)

type metaKey struct{}

// WithRequestMeta attaches request details that Record copies onto every entry
func WithRequestMeta(ctx context.Context, meta domain.RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) (domain.RequestMeta, bool) {
	meta, ok := ctx.Value(metaKey{}).(domain.RequestMeta)
	return meta, ok
}

// Entry is the caller side description of an audit record
type Entry struct {
	Actor        *domain.Principal // nil for system actions
	Action       string
	ResourceType string
	ResourceID   string
	OldValues    map[string]any
	NewValues    map[string]any
	Details      map[string]any
	Severity     domain.AuditSeverity
	Category     domain.AuditCategory
}

type Recorder struct {
	repo repository.AuditRepository
}

func NewRecorder(repo repository.AuditRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record appends an entry. Severity defaults to INFO and category to data_modification.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	entry := &domain.AuditLogEntry{
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		OldValues:    e.OldValues,
		NewValues:    e.NewValues,
		Details:      e.Details,
		Severity:     e.Severity,
		Category:     e.Category,
	}
	if entry.Severity == "" {
		entry.Severity = domain.AuditSeverityInfo
	}
	if entry.Category == "" {
		entry.Category = domain.AuditCategoryDataModification
	}
	if e.Actor != nil {
		id := e.Actor.ID
		entry.UserID = &id
	}
	if meta, ok := RequestMetaFrom(ctx); ok {
		entry.IPAddress = nonEmpty(meta.IPAddress)
		entry.UserAgent = nonEmpty(meta.UserAgent)
		entry.RequestID = nonEmpty(meta.RequestID)
	}

	if err := r.repo.Create(entry); err != nil {
		slog.Error("Failed to write audit entry",
			"layer", "audit",
			"operation", "record",
			"action", e.Action,
			"resource_type", e.ResourceType,
			"resource_id", e.ResourceID,
			"error", err)
		return err
	}
	return nil
}

// RecordError appends an ERROR severity entry for a failed operation
func (r *Recorder) RecordError(ctx context.Context, actor *domain.Principal, resourceType, resourceID string, cause error, details map[string]any) error {
	merged := map[string]any{"error": cause.Error()}
	for k, v := range details {
		merged[k] = v
	}
	return r.Record(ctx, Entry{
		Actor:        actor,
		Action:       domain.AuditActionError,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      merged,
		Severity:     domain.AuditSeverityError,
		Category:     domain.AuditCategorySystem,
	})
}

func (r *Recorder) List(filter domain.AuditFilter) ([]*domain.AuditLogEntry, error) {
	return r.repo.List(filter)
}

// Anonymize clears personal data from a user's entries while keeping the rows
func (r *Recorder) Anonymize(userID uuid.UUID) (int64, error) {
	n, err := r.repo.Anonymize(userID)
	if err != nil {
		return 0, err
	}
	slog.Info("Audit entries anonymized", "user_id", userID, "entries", n)
	return n, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
