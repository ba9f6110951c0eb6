package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionDelete  = "DELETE"
	AuditActionError   = "ERROR"
	AuditActionRecover = "RECOVER"
)

// Audit resource types
const (
	AuditResourceProject    = "project"
	AuditResourceGeneration = "code_generation"
	AuditResourceDeployment = "deployment"
	AuditResourceUser       = "user"
)

type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "INFO"
	AuditSeverityWarning  AuditSeverity = "WARNING"
	AuditSeverityError    AuditSeverity = "ERROR"
	AuditSeverityCritical AuditSeverity = "CRITICAL"
)

type AuditCategory string

const (
	AuditCategoryAuthentication   AuditCategory = "authentication"
	AuditCategoryAuthorization    AuditCategory = "authorization"
	AuditCategoryDataAccess       AuditCategory = "data_access"
	AuditCategoryDataModification AuditCategory = "data_modification"
	AuditCategorySystem           AuditCategory = "system"
	AuditCategorySecurity         AuditCategory = "security"
)

// AuditLogEntry is an append-only record of a state-changing action
type AuditLogEntry struct {
	ID           uuid.UUID
	UserID       *uuid.UUID // nil for system actions
	Action       string
	ResourceType string
	ResourceID   string
	OldValues    map[string]any
	NewValues    map[string]any
	Details      map[string]any
	Severity     AuditSeverity
	Category     AuditCategory
	IPAddress    *string
	UserAgent    *string
	RequestID    *string
	CreatedAt    time.Time
}

// AuditFilter narrows an audit log listing. Zero values match everything.
type AuditFilter struct {
	UserID       *uuid.UUID
	ResourceType string
	ResourceID   string
	Action       string
	Severity     AuditSeverity
	Limit        int
}
