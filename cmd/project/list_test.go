package project

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/testing/mocks"
)

func TestNewCmdProjectList(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		mockProjects   []*domain.Project
		mockError      error
		expectedStatus *domain.ProjectStatus
		expectedOutput string
		expectError    bool
	}{
		{
			name: "list projects success",
			mockProjects: []*domain.Project{
				{
					ID:        uuid.New(),
					Name:      "test-project-1",
					Status:    domain.ProjectStatusDraft,
					CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
				},
				{
					ID:        uuid.New(),
					Name:      "test-project-2",
					Status:    domain.ProjectStatusDeployed,
					CreatedAt: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			name:           "no projects found",
			mockProjects:   []*domain.Project{},
			expectedOutput: "No projects found.",
		},
		{
			name:           "status filter is case insensitive",
			args:           []string{"--status", "deployed"},
			mockProjects:   []*domain.Project{},
			expectedStatus: func() *domain.ProjectStatus { s := domain.ProjectStatusDeployed; return &s }(),
		},
		{
			name:        "invalid status filter",
			args:        []string{"--status", "RUNNING"},
			expectError: true,
		},
		{
			name:        "service error",
			mockError:   errors.New("database connection failed"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotStatus *domain.ProjectStatus
			useMock(t, &mocks.MockProjectManager{
				ListFunc: func(principal domain.Principal, status *domain.ProjectStatus) ([]*domain.Project, error) {
					assert.Equal(t, testOperator, principal)
					gotStatus = status
					return tt.mockProjects, tt.mockError
				},
			})

			stdout, err := execute(NewCmdProjectList(), tt.args...)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.expectedOutput != "" {
				assert.Contains(t, stdout, tt.expectedOutput)
			}
			if tt.expectedStatus != nil {
				assert.Equal(t, tt.expectedStatus, gotStatus)
			}
			for _, project := range tt.mockProjects {
				assert.Contains(t, stdout, project.Name)
				assert.Contains(t, stdout, project.Status.String())
			}
		})
	}
}

func TestNewCmdProjectListCommand(t *testing.T) {
	cmd := NewCmdProjectList()

	assert.Equal(t, "list", cmd.Use)
	assert.Equal(t, "List all projects", cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Flags().Lookup("status"))
}
