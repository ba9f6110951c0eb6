// Package db provides database models and utilities for Shipyard.
package db

import (
	"time"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MigrationModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"not null;unique"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationModel) TableName() string {
	return "schema_migrations"
}

type UserModel struct {
	BaseModel
	Email string `gorm:"not null;unique;check:email <> ''"`
	Name  string `gorm:"not null"`
	Role  string `gorm:"not null;check:role <> ''"` // USER, ADMIN
}

func (UserModel) TableName() string {
	return "users"
}

type ProjectModel struct {
	BaseModel
	OwnerID        uuid.UUID  `gorm:"type:char(36);not null;index"`
	Name           string     `gorm:"not null;check:name <> ''"`
	Description    *string    `gorm:"type:text"`
	TechStack      string     `gorm:"type:text;not null"` // JSON array of tech stack items
	Prompt         *string    `gorm:"type:text"`
	GeneratedFiles *string    `gorm:"type:text"` // JSON array of files, NULL until first generation
	GitHubRepo     *string    `gorm:"column:github_repo"`
	DeploymentURL  *string    `gorm:"column:deployment_url"`
	Version        int        `gorm:"not null;default:1"`
	Status         string     `gorm:"not null;index;check:status <> ''"` // DRAFT, GENERATING, GENERATED, DEPLOYING, DEPLOYED, FAILED
	LastDeployedAt *time.Time

	Owner       UserModel              `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Generations []CodeGenerationModel `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Deployments []DeploymentModel     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

type CodeGenerationModel struct {
	BaseModel
	ProjectID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Prompt       string    `gorm:"type:text;not null"`
	Model        string    `gorm:"not null"`
	Provider     string    `gorm:"not null;check:provider <> ''"`
	Output       *string   `gorm:"type:text"` // JSON array of files
	InputTokens  *int
	OutputTokens *int
	DurationMs   *int64
	Status       string  `gorm:"not null;check:status <> ''"` // PENDING, PROCESSING, COMPLETED, FAILED
	ErrorMessage *string `gorm:"type:text"`
	CompletedAt  *time.Time
}

func (CodeGenerationModel) TableName() string {
	return "code_generations"
}

type DeploymentModel struct {
	BaseModel
	ProjectID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Provider     string    `gorm:"not null;check:provider <> ''"`
	Status       string    `gorm:"not null;check:status <> ''"` // PENDING, BUILDING, SUCCESS, FAILED, CANCELLED
	URL          *string
	RepoURL      *string
	ExternalID   *string
	ErrorMessage *string `gorm:"type:text"`
	EnvVariables *string `gorm:"type:text"` // Encrypted JSON object
	StartedAt    time.Time
	CompletedAt  *time.Time
}

func (DeploymentModel) TableName() string {
	return "deployments"
}

type AuditLogModel struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID       *uuid.UUID `gorm:"type:char(36);index"` // NULL for system actions
	Action       string     `gorm:"not null;index"`
	ResourceType string     `gorm:"not null;index:idx_audit_resource"`
	ResourceID   string     `gorm:"not null;index:idx_audit_resource"`
	OldValues    *string    `gorm:"type:text"`
	NewValues    *string    `gorm:"type:text"`
	Details      *string    `gorm:"type:text"`
	Severity     string     `gorm:"not null"`
	Category     string     `gorm:"not null"`
	IPAddress    *string
	UserAgent    *string
	RequestID    *string
	CreatedAt    time.Time `gorm:"index"`

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}
