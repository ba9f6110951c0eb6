package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oar-cd/shipyard/db"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/encryption"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.InitDatabase(db.DBConfig{Path: db.MemoryPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(database))
	return database
}

func createTestUser(t *testing.T, database *gorm.DB) *domain.User {
	t.Helper()
	user, err := NewUserRepository(database).Create(&domain.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@example.com",
		Name:  "Test User",
		Role:  domain.RoleUser,
	})
	require.NoError(t, err)
	return user
}

func createTestProject(t *testing.T, repo ProjectRepository, ownerID uuid.UUID) *domain.Project {
	t.Helper()
	version := "18"
	p := domain.NewProject(ownerID, "Todo App", nil, []domain.TechStackItem{
		{Name: "React", Category: domain.TechStackFrontend, Version: &version},
	}, nil)
	created, err := repo.Create(&p)
	require.NoError(t, err)
	return created
}

func TestProjectRepository_CreateFind(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)

	created := createTestProject(t, repo, user.ID)

	found, err := repo.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Todo App", found.Name)
	assert.Equal(t, domain.ProjectStatusDraft, found.Status)
	assert.Equal(t, 1, found.Version)
	require.Len(t, found.TechStack, 1)
	assert.Equal(t, "React", found.TechStack[0].Name)
	assert.Nil(t, found.GeneratedFiles, "generated files stay nil until first generation")
	assert.False(t, found.CreatedAt.IsZero())

	_, err = repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjectRepository_FinishRun(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)
	p := createTestProject(t, repo, user.ID)

	swapped, err := repo.CompareAndSwapStatus(p.ID, domain.ProjectStatusDraft, domain.ProjectStatusGenerating)
	require.NoError(t, err)
	require.True(t, swapped)

	p.Name = "Stale Name"
	p.GeneratedFiles = []domain.GeneratedFile{}
	p.Version = 2
	p.Status = domain.ProjectStatusGenerated

	written, err := repo.FinishRun(p, domain.ProjectStatusDeploying)
	require.NoError(t, err)
	assert.False(t, written, "stored status is not DEPLOYING")

	written, err = repo.FinishRun(p, domain.ProjectStatusGenerating)
	require.NoError(t, err)
	assert.True(t, written)

	found, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.GeneratedFiles, "an empty generation is distinct from no generation")
	assert.Empty(t, found.GeneratedFiles)
	assert.Equal(t, 2, found.Version)
	assert.Equal(t, domain.ProjectStatusGenerated, found.Status)
	assert.Equal(t, "Todo App", found.Name, "metadata is not written by a run")
	assert.Equal(t, p.CreatedAt.Unix(), found.CreatedAt.Unix())

	written, err = repo.FinishRun(p, domain.ProjectStatusGenerating)
	require.NoError(t, err)
	assert.False(t, written, "a finished run cannot be written twice")
}

func TestProjectRepository_UpdateMetadata(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)
	p := createTestProject(t, repo, user.ID)

	description := "A kanban board"
	p.Name = "Kanban"
	p.Description = &description
	p.Version = 7
	written, err := repo.UpdateMetadata(p)
	require.NoError(t, err)
	assert.True(t, written)

	found, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kanban", found.Name)
	assert.Equal(t, "A kanban board", found.DescriptionStr())
	assert.Equal(t, 1, found.Version, "run-owned columns are not written")
	assert.Equal(t, domain.ProjectStatusDraft, found.Status)

	_, err = repo.CompareAndSwapStatus(p.ID, domain.ProjectStatusDraft, domain.ProjectStatusGenerating)
	require.NoError(t, err)

	p.Name = "Lost Rename"
	written, err = repo.UpdateMetadata(p)
	require.NoError(t, err)
	assert.False(t, written, "status changed since the project was read")

	found, err = repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kanban", found.Name)
	assert.Equal(t, domain.ProjectStatusGenerating, found.Status)
}

func TestProjectRepository_List(t *testing.T) {
	database := setupTestDB(t)
	alice := createTestUser(t, database)
	bob := createTestUser(t, database)
	repo := NewProjectRepository(database)

	createTestProject(t, repo, alice.ID)
	createTestProject(t, repo, alice.ID)
	bobs := createTestProject(t, repo, bob.ID)
	_, err := repo.CompareAndSwapStatus(bobs.ID, domain.ProjectStatusDraft, domain.ProjectStatusFailed)
	require.NoError(t, err)

	all, err := repo.List(ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := repo.List(ProjectFilter{OwnerID: &alice.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	failed := domain.ProjectStatusFailed
	failedOnes, err := repo.List(ProjectFilter{Status: &failed})
	require.NoError(t, err)
	require.Len(t, failedOnes, 1)
	assert.Equal(t, bobs.ID, failedOnes[0].ID)
}

func TestProjectRepository_CompareAndSwapStatus(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)
	p := createTestProject(t, repo, user.ID)

	swapped, err := repo.CompareAndSwapStatus(p.ID, domain.ProjectStatusGenerated, domain.ProjectStatusDeploying)
	require.NoError(t, err)
	assert.False(t, swapped, "status does not match")

	swapped, err = repo.CompareAndSwapStatus(p.ID, domain.ProjectStatusDraft, domain.ProjectStatusGenerating)
	require.NoError(t, err)
	assert.True(t, swapped)

	found, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusGenerating, found.Status)
}

func TestProjectRepository_CompareAndSwapStatus_SingleWinner(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)
	p := createTestProject(t, repo, user.ID)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan bool, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			swapped, err := repo.CompareAndSwapStatus(p.ID, domain.ProjectStatusDraft, domain.ProjectStatusGenerating)
			assert.NoError(t, err)
			results <- swapped
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for swapped := range results {
		if swapped {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestProjectRepository_ListStale(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)

	stuck := createTestProject(t, repo, user.ID)
	fresh := createTestProject(t, repo, user.ID)
	_, err := repo.CompareAndSwapStatus(stuck.ID, domain.ProjectStatusDraft, domain.ProjectStatusGenerating)
	require.NoError(t, err)
	_, err = repo.CompareAndSwapStatus(fresh.ID, domain.ProjectStatusDraft, domain.ProjectStatusGenerating)
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, database.Model(&db.ProjectModel{}).Where("id = ?", stuck.ID).UpdateColumn("updated_at", old).Error)

	stale, err := repo.ListStale(
		[]domain.ProjectStatus{domain.ProjectStatusGenerating, domain.ProjectStatusDeploying},
		time.Now().Add(-10*time.Minute),
	)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, stuck.ID, stale[0].ID)
}

func TestProjectRepository_Delete(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewProjectRepository(database)
	p := createTestProject(t, repo, user.ID)

	require.NoError(t, repo.Delete(p.ID))
	_, err := repo.FindByID(p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGenerationRepository_Lifecycle(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	p := createTestProject(t, NewProjectRepository(database), user.ID)
	repo := NewGenerationRepository(database)

	g := domain.NewCodeGeneration(p.ID, "build a todo app", "openai", "gpt-4o")
	require.NoError(t, repo.Create(&g))
	assert.False(t, g.CreatedAt.IsZero())

	g.Status = domain.GenerationStatusProcessing
	written, err := repo.UpdateUnfinished(&g)
	require.NoError(t, err)
	assert.True(t, written)

	g.Complete([]domain.GeneratedFile{{Path: "index.html", Content: "<h1>hi</h1>"}},
		domain.TokenUsage{InputTokens: 10, OutputTokens: 20}, 1500*time.Millisecond)
	written, err = repo.UpdateUnfinished(&g)
	require.NoError(t, err)
	assert.True(t, written)

	late := g
	late.Fail("run interrupted before completion")
	written, err = repo.UpdateUnfinished(&late)
	require.NoError(t, err)
	assert.False(t, written, "a completed generation is immutable")

	found, err := repo.FindByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GenerationStatusCompleted, found.Status)
	require.Len(t, found.Output, 1)
	assert.Equal(t, "index.html", found.Output[0].Path)
	require.NotNil(t, found.Usage)
	assert.Equal(t, 30, found.Usage.Total())
	require.NotNil(t, found.DurationMs)
	assert.Equal(t, int64(1500), *found.DurationMs)
	assert.NotNil(t, found.CompletedAt)
	assert.Nil(t, found.ErrorMessage)

	list, err := repo.ListByProjectID(p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeploymentRepository_EncryptsEnvVariables(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	p := createTestProject(t, NewProjectRepository(database), user.ID)

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptionSvc, err := encryption.NewEncryptionService(key)
	require.NoError(t, err)
	repo := NewDeploymentRepository(database, encryptionSvc)

	d := domain.NewDeployment(p.ID, domain.DeployProviderVercel, map[string]string{"SECRET": "hunter2"})
	require.NoError(t, repo.Create(&d))

	var raw db.DeploymentModel
	require.NoError(t, database.First(&raw, "id = ?", d.ID).Error)
	require.NotNil(t, raw.EnvVariables)
	assert.NotContains(t, *raw.EnvVariables, "hunter2")

	d.Succeed("https://todo.vercel.app", "https://github.com/acme/todo", "dpl_1")
	written, err := repo.UpdateUnfinished(&d)
	require.NoError(t, err)
	assert.True(t, written)

	late := d
	late.Fail("run interrupted before completion")
	written, err = repo.UpdateUnfinished(&late)
	require.NoError(t, err)
	assert.False(t, written, "a finished deployment is immutable")

	found, err := repo.FindByID(d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusSuccess, found.Status)
	assert.Equal(t, "https://todo.vercel.app", found.URLStr())
	assert.Equal(t, map[string]string{"SECRET": "hunter2"}, found.EnvVariables)
}

func TestAuditRepository_ListAndAnonymize(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database)
	repo := NewAuditRepository(database)

	ip := "10.0.0.1"
	agent := "curl/8"
	for _, action := range []string{domain.AuditActionCreate, domain.AuditActionError} {
		require.NoError(t, repo.Create(&domain.AuditLogEntry{
			UserID:       &user.ID,
			Action:       action,
			ResourceType: domain.AuditResourceProject,
			ResourceID:   "p1",
			NewValues:    map[string]any{"status": "GENERATED"},
			Severity:     domain.AuditSeverityInfo,
			Category:     domain.AuditCategoryDataModification,
			IPAddress:    &ip,
			UserAgent:    &agent,
		}))
	}
	require.NoError(t, repo.Create(&domain.AuditLogEntry{
		Action:       domain.AuditActionRecover,
		ResourceType: domain.AuditResourceProject,
		ResourceID:   "p2",
		Severity:     domain.AuditSeverityWarning,
		Category:     domain.AuditCategorySystem,
	}))

	created, err := repo.List(domain.AuditFilter{Action: domain.AuditActionCreate})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "GENERATED", created[0].NewValues["status"])

	mine, err := repo.List(domain.AuditFilter{UserID: &user.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	changed, err := repo.Anonymize(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	all, err := repo.List(domain.AuditFilter{ResourceID: "p1"})
	require.NoError(t, err)
	require.Len(t, all, 2, "anonymization keeps the rows")
	for _, entry := range all {
		assert.Nil(t, entry.UserID)
		assert.Nil(t, entry.IPAddress)
		assert.Nil(t, entry.UserAgent)
	}
}
