package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/sourcehost"
)

type MockSourceHost struct {
	mock.Mock
}

func (m *MockSourceHost) PushFiles(ctx context.Context, req sourcehost.PushRequest) (*sourcehost.PushResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*sourcehost.PushResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDeployTarget struct {
	mock.Mock
}

func (m *MockDeployTarget) Deploy(ctx context.Context, req deploytarget.DeployRequest) (*deploytarget.DeployResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*deploytarget.DeployResult), args.Error(1)
	}
	return nil, args.Error(1)
}

var files = []domain.GeneratedFile{{Path: "index.js", Content: "x"}}

func newRequest(provider domain.DeployProvider) Request {
	return Request{
		Files:        files,
		Name:         "My Todo App",
		Description:  "todo",
		Private:      true,
		Provider:     provider,
		EnvVariables: map[string]string{"K": "V"},
	}
}

func TestOrchestrator_Run_Success(t *testing.T) {
	source := &MockSourceHost{}
	target := &MockDeployTarget{}

	source.On("PushFiles", mock.Anything, sourcehost.PushRequest{
		Repo:          "my-todo-app",
		Files:         files,
		CommitMessage: commitMessage,
		Private:       true,
		Description:   "todo",
	}).Return(&sourcehost.PushResult{Owner: "octo", Repo: "my-todo-app", RepoURL: "https://github.com/octo/my-todo-app", CommitHash: "abc"}, nil)
	target.On("Deploy", mock.Anything, deploytarget.DeployRequest{
		ProjectName:  "my-todo-app",
		RepoOwner:    "octo",
		RepoName:     "my-todo-app",
		EnvVariables: map[string]string{"K": "V"},
	}).Return(&deploytarget.DeployResult{URL: "https://my-todo-app.vercel.app", DeploymentID: "dpl_1"}, nil)

	result, err := NewOrchestrator(source, target).Run(context.Background(), newRequest(domain.DeployProviderVercel))
	require.NoError(t, err)

	assert.Equal(t, &Result{
		Success:       true,
		RepoURL:       "https://github.com/octo/my-todo-app",
		CommitHash:    "abc",
		DeploymentURL: "https://my-todo-app.vercel.app",
		DeploymentID:  "dpl_1",
	}, result)
	source.AssertExpectations(t)
	target.AssertExpectations(t)
}

func TestOrchestrator_Run_SourceFailureSkipsDeploy(t *testing.T) {
	source := &MockSourceHost{}
	target := &MockDeployTarget{}
	pushErr := errors.New("github api error: Bad credentials")

	source.On("PushFiles", mock.Anything, mock.Anything).Return(nil, pushErr)

	result, err := NewOrchestrator(source, target).Run(context.Background(), newRequest(domain.DeployProviderVercel))

	assert.Same(t, pushErr, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Empty(t, result.RepoURL)
	assert.Empty(t, result.DeploymentURL)
	assert.Equal(t, "github api error: Bad credentials", result.Error)
	target.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_DeployFailureKeepsRepoURL(t *testing.T) {
	source := &MockSourceHost{}
	target := &MockDeployTarget{}

	source.On("PushFiles", mock.Anything, mock.Anything).
		Return(&sourcehost.PushResult{Owner: "octo", Repo: "my-todo-app", RepoURL: "https://github.com/octo/my-todo-app"}, nil)
	target.On("Deploy", mock.Anything, mock.Anything).Return(nil, deploytarget.ErrDeploymentTimeout)

	result, err := NewOrchestrator(source, target).Run(context.Background(), newRequest(domain.DeployProviderVercel))

	assert.ErrorIs(t, err, deploytarget.ErrDeploymentTimeout)
	assert.False(t, result.Success)
	assert.Equal(t, "https://github.com/octo/my-todo-app", result.RepoURL)
	assert.Empty(t, result.DeploymentURL)
	assert.Equal(t, "deployment timed out", result.Error)
}

func TestOrchestrator_Run_NotImplementedProviders(t *testing.T) {
	for _, provider := range []domain.DeployProvider{domain.DeployProviderNetlify, domain.DeployProviderGitHubPages} {
		t.Run(string(provider), func(t *testing.T) {
			source := &MockSourceHost{}
			target := &MockDeployTarget{}

			result, err := NewOrchestrator(source, target).Run(context.Background(), newRequest(provider))

			var notImpl *NotImplementedError
			require.ErrorAs(t, err, &notImpl)
			assert.Equal(t, provider, notImpl.Provider)
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, "not yet implemented")
			source.AssertNotCalled(t, "PushFiles", mock.Anything, mock.Anything)
			target.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything)
		})
	}
}

func TestOrchestrator_Run_UnknownProvider(t *testing.T) {
	source := &MockSourceHost{}

	_, err := NewOrchestrator(source, &MockDeployTarget{}).Run(context.Background(), newRequest("heroku"))

	require.Error(t, err)
	source.AssertNotCalled(t, "PushFiles", mock.Anything, mock.Anything)
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Todo App", "my-todo-app"},
		{"  Hello, World  ", "hello-world"},
		{"!!!", defaultRepoName},
		{"", defaultRepoName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RepoName(tt.in))
		})
	}

	assert.Len(t, RepoName(strings.Repeat("a", 150)), maxRepoName)
}
