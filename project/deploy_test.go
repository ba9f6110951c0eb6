package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
)

func TestProjectService_Deploy_EndToEnd(t *testing.T) {
	env := setupEnv(t, envOptions{
		vercelStates: []string{deploytarget.StateBuilding, deploytarget.StateReady},
	})
	p := env.generatedProject(t)
	before := time.Now()

	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{
		Provider:     domain.DeployProviderVercel,
		EnvVariables: map[string]string{"API_KEY": "secret"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "https://todo-app.vercel.app", result.DeploymentURL)
	assert.Equal(t, "https://github.com/octo/todo-app", result.RepoURL)
	assert.Empty(t, result.Error)

	deployments, err := env.deployments.ListByProjectID(p.ID)
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	d := deployments[0]
	assert.Equal(t, domain.DeploymentStatusSuccess, d.Status)
	assert.Equal(t, "https://todo-app.vercel.app", d.URLStr())
	assert.Equal(t, "dpl_1", *d.ExternalID)
	assert.NotNil(t, d.CompletedAt)
	assert.Equal(t, map[string]string{"API_KEY": "secret"}, d.EnvVariables)

	updated, err := env.projects.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusDeployed, updated.Status)
	assert.Equal(t, "https://todo-app.vercel.app", updated.DeploymentURLStr())
	assert.Equal(t, "https://github.com/octo/todo-app", updated.GitHubRepoStr())
	require.NotNil(t, updated.LastDeployedAt)
	assert.False(t, updated.LastDeployedAt.Before(before.Add(-time.Second)))

	entries := env.auditEntries(t, domain.AuditFilter{ResourceType: domain.AuditResourceDeployment})
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionCreate, entries[0].Action)
	assert.Equal(t, domain.AuditCategoryDataAccess, entries[0].Category)
}

func TestProjectService_Deploy_Redeploy(t *testing.T) {
	env := setupEnv(t, envOptions{})
	p := env.generatedProject(t)

	for range 2 {
		_, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})
		require.NoError(t, err)
	}

	deployments, err := env.deployments.ListByProjectID(p.ID)
	require.NoError(t, err)
	assert.Len(t, deployments, 2)
}

func TestProjectService_Deploy_Timeout(t *testing.T) {
	env := setupEnv(t, envOptions{
		vercelStates:  []string{deploytarget.StateBuilding},
		vercelTimeout: 50 * time.Millisecond,
	})
	p := env.generatedProject(t)

	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})

	assert.ErrorIs(t, err, deploytarget.ErrDeploymentTimeout)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "https://github.com/octo/todo-app", result.RepoURL)
	assert.Empty(t, result.DeploymentURL)
	assert.Equal(t, "deployment timed out", result.Error)

	deployments, err := env.deployments.ListByProjectID(p.ID)
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	assert.Equal(t, domain.DeploymentStatusFailed, deployments[0].Status)
	assert.Equal(t, "deployment timed out", deployments[0].ErrorMessageStr())

	updated, err := env.projects.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusFailed, updated.Status)
	assert.Nil(t, updated.DeploymentURL)
	assert.Equal(t, "https://github.com/octo/todo-app", updated.GitHubRepoStr())

	errorEntries := env.auditEntries(t, domain.AuditFilter{Action: domain.AuditActionError, ResourceType: domain.AuditResourceDeployment})
	assert.Len(t, errorEntries, 1)
}

func TestProjectService_Deploy_TerminalState(t *testing.T) {
	env := setupEnv(t, envOptions{vercelStates: []string{deploytarget.StateError}})
	p := env.generatedProject(t)

	_, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})

	var terminal *deploytarget.TerminalStateError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, deploytarget.StateError, terminal.State)
}

func TestProjectService_Deploy_SourceFailure(t *testing.T) {
	env := setupEnv(t, envOptions{})
	env.source.err = errors.New("github api error: Bad credentials")
	p := env.generatedProject(t)

	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})

	require.Error(t, err)
	assert.Empty(t, result.RepoURL)
	assert.Empty(t, result.DeploymentURL)
	assert.Equal(t, "github api error: Bad credentials", result.Error)

	updated, err := env.projects.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusFailed, updated.Status)
	assert.Nil(t, updated.GitHubRepo)
}

func TestProjectService_Deploy_RetryFromFailed(t *testing.T) {
	env := setupEnv(t, envOptions{})
	env.source.err = errors.New("network down")
	p := env.generatedProject(t)
	_, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})
	require.Error(t, err)

	env.source.err = nil
	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestProjectService_Deploy_DraftRejected(t *testing.T) {
	env := setupEnv(t, envOptions{})
	p := env.createProject(t)

	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, project.ErrNotGenerated)
	assert.Equal(t, int32(0), env.source.calls.Load())

	deployments, err := env.deployments.ListByProjectID(p.ID)
	require.NoError(t, err)
	assert.Empty(t, deployments)

	updated, err := env.projects.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusDraft, updated.Status)
}

func TestProjectService_Deploy_EmptyGenerationRejected(t *testing.T) {
	env := setupEnv(t, envOptions{})
	env.llm.content = `{"files": []}`
	p := env.generatedProject(t)
	require.Equal(t, domain.ProjectStatusGenerated, p.Status)

	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderVercel})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, project.ErrNotGenerated)
	assert.Equal(t, int32(0), env.source.calls.Load())

	updated, err := env.projects.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusGenerated, updated.Status)
}

func TestProjectService_Deploy_NotImplementedProvider(t *testing.T) {
	env := setupEnv(t, envOptions{})
	p := env.generatedProject(t)

	result, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: domain.DeployProviderNetlify})

	var notImpl *pipeline.NotImplementedError
	require.ErrorAs(t, err, &notImpl)
	assert.False(t, result.Success)
	assert.Equal(t, int32(0), env.source.calls.Load())

	updated, err := env.projects.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusFailed, updated.Status)
}

func TestProjectService_Deploy_InvalidInput(t *testing.T) {
	env := setupEnv(t, envOptions{})
	p := env.generatedProject(t)

	var validationErr *project.ValidationError

	_, err := env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{Provider: "heroku"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "provider", validationErr.Field)

	_, err = env.service.Deploy(context.Background(), env.owner, p.ID, project.DeployOptions{
		Provider:     domain.DeployProviderVercel,
		EnvVariables: map[string]string{" ": "x"},
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "env_variables", validationErr.Field)
}
