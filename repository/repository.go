package repository

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oar-cd/shipyard/db"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/encryption"
	"gorm.io/gorm"
)

// ProjectFilter narrows a project listing. Zero values match everything.
type ProjectFilter struct {
	OwnerID *uuid.UUID
	Status  *domain.ProjectStatus
}

type ProjectRepository interface {
	FindByID(id uuid.UUID) (*domain.Project, error)
	Create(project *domain.Project) (*domain.Project, error)
	// UpdateMetadata writes name, description, tech stack and prompt while the stored
	// status still equals project.Status. It reports whether a row was written.
	UpdateMetadata(project *domain.Project) (bool, error)
	// FinishRun writes the status and the columns owned by a generation or deployment
	// run (files, version, repository, deployment URL) while the stored status is `from`.
	// It reports whether a row was written.
	FinishRun(project *domain.Project, from domain.ProjectStatus) (bool, error)
	List(filter ProjectFilter) ([]*domain.Project, error)
	Delete(id uuid.UUID) error
	// CompareAndSwapStatus moves the project to `to` only if it is currently in `from`.
	// It reports whether this call performed the change.
	CompareAndSwapStatus(id uuid.UUID, from, to domain.ProjectStatus) (bool, error)
	// ListStale returns projects in one of the statuses that were last updated before the cutoff
	ListStale(statuses []domain.ProjectStatus, updatedBefore time.Time) ([]*domain.Project, error)
}

type projectRepository struct {
	db     *gorm.DB
	mapper *ProjectMapper
}

func (r *projectRepository) List(filter ProjectFilter) ([]*domain.Project, error) {
	query := r.db.Order("created_at DESC")
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var models []db.ProjectModel
	if err := query.Find(&models).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "list_projects",
			"error", err)
		return nil, err
	}

	projects := make([]*domain.Project, len(models))
	for i := range models {
		projects[i] = r.mapper.ToDomain(&models[i])
	}
	return projects, nil
}

func (r *projectRepository) FindByID(id uuid.UUID) (*domain.Project, error) {
	var m db.ProjectModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "find_project",
			"project_id", id,
			"error", err)
		return nil, err // Pass through as-is
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *projectRepository) Create(project *domain.Project) (*domain.Project, error) {
	m := r.mapper.ToModel(project)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_project",
			"project_id", project.ID,
			"project_name", project.Name,
			"error", err)
		return nil, err // Pass through as-is
	}
	return r.mapper.ToDomain(m), nil
}

func (r *projectRepository) UpdateMetadata(project *domain.Project) (bool, error) {
	m := r.mapper.ToModel(project)
	now := time.Now()

	res := r.db.Model(&db.ProjectModel{}).
		Where("id = ? AND status = ?", m.ID, m.Status).
		Updates(map[string]any{
			"name":        m.Name,
			"description": m.Description,
			"tech_stack":  m.TechStack,
			"prompt":      m.Prompt,
			"updated_at":  now,
		})
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_project",
			"project_id", project.ID,
			"error", res.Error)
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	project.UpdatedAt = now
	return true, nil
}

func (r *projectRepository) FinishRun(project *domain.Project, from domain.ProjectStatus) (bool, error) {
	m := r.mapper.ToModel(project)
	now := time.Now()

	res := r.db.Model(&db.ProjectModel{}).
		Where("id = ? AND status = ?", m.ID, from.String()).
		Updates(map[string]any{
			"status":           m.Status,
			"generated_files":  m.GeneratedFiles,
			"version":          m.Version,
			"github_repo":      m.GitHubRepo,
			"deployment_url":   m.DeploymentURL,
			"last_deployed_at": m.LastDeployedAt,
			"updated_at":       now,
		})
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "finish_project_run",
			"project_id", project.ID,
			"from", from.String(),
			"to", m.Status,
			"error", res.Error)
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	project.UpdatedAt = now
	return true, nil
}

func (r *projectRepository) Delete(id uuid.UUID) error {
	err := r.db.Delete(&db.ProjectModel{}, "id = ?", id).Error
	if err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "delete_project",
			"project_id", id,
			"error", err)
	}
	return err // Pass through as-is
}

func (r *projectRepository) CompareAndSwapStatus(id uuid.UUID, from, to domain.ProjectStatus) (bool, error) {
	res := r.db.Model(&db.ProjectModel{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(map[string]any{
			"status":     to.String(),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "swap_project_status",
			"project_id", id,
			"from", from.String(),
			"to", to.String(),
			"error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *projectRepository) ListStale(statuses []domain.ProjectStatus, updatedBefore time.Time) ([]*domain.Project, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}

	var models []db.ProjectModel
	err := r.db.Where("status IN ? AND updated_at < ?", names, updatedBefore).Find(&models).Error
	if err != nil {
		return nil, err
	}

	projects := make([]*domain.Project, len(models))
	for i := range models {
		projects[i] = r.mapper.ToDomain(&models[i])
	}
	return projects, nil
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{
		db:     db,
		mapper: &ProjectMapper{},
	}
}

type GenerationRepository interface {
	FindByID(id uuid.UUID) (*domain.CodeGeneration, error)
	Create(generation *domain.CodeGeneration) error
	// UpdateUnfinished writes the generation only while the stored row is not yet
	// COMPLETED or FAILED. It reports whether a row was written.
	UpdateUnfinished(generation *domain.CodeGeneration) (bool, error)
	ListByProjectID(projectID uuid.UUID) ([]*domain.CodeGeneration, error)
}

type generationRepository struct {
	db     *gorm.DB
	mapper *GenerationMapper
}

func (r *generationRepository) FindByID(id uuid.UUID) (*domain.CodeGeneration, error) {
	var m db.CodeGenerationModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *generationRepository) Create(generation *domain.CodeGeneration) error {
	m := r.mapper.ToModel(generation)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_generation",
			"project_id", generation.ProjectID,
			"error", err)
		return err
	}
	// Pick up the timestamps that GORM populated
	*generation = *r.mapper.ToDomain(m)
	return nil
}

var unfinishedGenerationStatuses = []string{
	domain.GenerationStatusPending.String(),
	domain.GenerationStatusProcessing.String(),
}

func (r *generationRepository) UpdateUnfinished(generation *domain.CodeGeneration) (bool, error) {
	m := r.mapper.ToModel(generation)
	res := r.db.Model(&db.CodeGenerationModel{}).
		Where("id = ? AND status IN ?", m.ID, unfinishedGenerationStatuses).
		Select("*").
		Omit("created_at").
		Updates(m)
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_generation",
			"generation_id", generation.ID,
			"error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *generationRepository) ListByProjectID(projectID uuid.UUID) ([]*domain.CodeGeneration, error) {
	var models []db.CodeGenerationModel
	if err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	generations := make([]*domain.CodeGeneration, len(models))
	for i := range models {
		generations[i] = r.mapper.ToDomain(&models[i])
	}
	return generations, nil
}

func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{
		db:     db,
		mapper: &GenerationMapper{},
	}
}

type DeploymentRepository interface {
	FindByID(id uuid.UUID) (*domain.Deployment, error)
	Create(deployment *domain.Deployment) error
	// UpdateUnfinished writes the deployment only while the stored row is still
	// PENDING or BUILDING. It reports whether a row was written.
	UpdateUnfinished(deployment *domain.Deployment) (bool, error)
	ListByProjectID(projectID uuid.UUID) ([]*domain.Deployment, error)
}

type deploymentRepository struct {
	db     *gorm.DB
	mapper *DeploymentMapper
}

func (r *deploymentRepository) FindByID(id uuid.UUID) (*domain.Deployment, error) {
	var m db.DeploymentModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *deploymentRepository) Create(deployment *domain.Deployment) error {
	m, err := r.mapper.ToModel(deployment)
	if err != nil {
		return err
	}
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_deployment",
			"project_id", deployment.ProjectID,
			"error", err)
		return err
	}
	return nil
}

var unfinishedDeploymentStatuses = []string{
	domain.DeploymentStatusPending.String(),
	domain.DeploymentStatusBuilding.String(),
}

func (r *deploymentRepository) UpdateUnfinished(deployment *domain.Deployment) (bool, error) {
	m, err := r.mapper.ToModel(deployment)
	if err != nil {
		return false, err
	}
	res := r.db.Model(&db.DeploymentModel{}).
		Where("id = ? AND status IN ?", m.ID, unfinishedDeploymentStatuses).
		Select("*").
		Omit("created_at").
		Updates(m)
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_deployment",
			"deployment_id", deployment.ID,
			"error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *deploymentRepository) ListByProjectID(projectID uuid.UUID) ([]*domain.Deployment, error) {
	var models []db.DeploymentModel
	if err := r.db.Where("project_id = ?", projectID).Order("started_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	deployments := make([]*domain.Deployment, len(models))
	for i := range models {
		deployments[i] = r.mapper.ToDomain(&models[i])
	}
	return deployments, nil
}

func NewDeploymentRepository(db *gorm.DB, encryptionSvc *encryption.EncryptionService) DeploymentRepository {
	return &deploymentRepository{
		db:     db,
		mapper: NewDeploymentMapper(encryptionSvc),
	}
}

type UserRepository interface {
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Create(user *domain.User) (*domain.User, error)
	List() ([]*domain.User, error)
	Delete(id uuid.UUID) error
}

type userRepository struct {
	db     *gorm.DB
	mapper *UserMapper
}

func (r *userRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var m db.UserModel
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	var m db.UserModel
	if err := r.db.Where("email = ?", email).First(&m).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *userRepository) Create(user *domain.User) (*domain.User, error) {
	m := r.mapper.ToModel(user)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_user",
			"user_id", user.ID,
			"error", err)
		return nil, err
	}
	return r.mapper.ToDomain(m), nil
}

func (r *userRepository) List() ([]*domain.User, error) {
	var models []db.UserModel
	if err := r.db.Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]*domain.User, len(models))
	for i := range models {
		users[i] = r.mapper.ToDomain(&models[i])
	}
	return users, nil
}

func (r *userRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&db.UserModel{}, "id = ?", id).Error
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db:     db,
		mapper: &UserMapper{},
	}
}

// AuditRepository is append-only apart from anonymization
type AuditRepository interface {
	Create(entry *domain.AuditLogEntry) error
	List(filter domain.AuditFilter) ([]*domain.AuditLogEntry, error)
	// Anonymize clears personal data on every entry of the user and returns the number of rows changed
	Anonymize(userID uuid.UUID) (int64, error)
}

type auditRepository struct {
	db     *gorm.DB
	mapper *AuditMapper
}

func (r *auditRepository) Create(entry *domain.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m := r.mapper.ToModel(entry)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_audit_entry",
			"action", entry.Action,
			"resource_id", entry.ResourceID,
			"error", err)
		return err
	}
	entry.CreatedAt = m.CreatedAt
	return nil
}

func (r *auditRepository) List(filter domain.AuditFilter) ([]*domain.AuditLogEntry, error) {
	query := r.db.Order("created_at DESC")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", string(filter.Severity))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var models []db.AuditLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]*domain.AuditLogEntry, len(models))
	for i := range models {
		entries[i] = r.mapper.ToDomain(&models[i])
	}
	return entries, nil
}

func (r *auditRepository) Anonymize(userID uuid.UUID) (int64, error) {
	res := r.db.Model(&db.AuditLogModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"user_id":    nil,
			"ip_address": nil,
			"user_agent": nil,
		})
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "anonymize_audit_entries",
			"user_id", userID,
			"error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{
		db:     db,
		mapper: &AuditMapper{},
	}
}
