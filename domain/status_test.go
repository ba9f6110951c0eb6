package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allProjectStatuses = []ProjectStatus{
	ProjectStatusDraft,
	ProjectStatusGenerating,
	ProjectStatusGenerated,
	ProjectStatusDeploying,
	ProjectStatusDeployed,
	ProjectStatusFailed,
}

func TestCanTransition_Table(t *testing.T) {
	allowed := map[ProjectStatus][]ProjectStatus{
		ProjectStatusDraft:      {ProjectStatusGenerating},
		ProjectStatusGenerating: {ProjectStatusGenerated, ProjectStatusFailed},
		ProjectStatusGenerated:  {ProjectStatusGenerating, ProjectStatusDeploying},
		ProjectStatusDeploying:  {ProjectStatusDeployed, ProjectStatusFailed},
		ProjectStatusDeployed:   {ProjectStatusGenerating, ProjectStatusDeploying},
		ProjectStatusFailed:     {ProjectStatusDraft, ProjectStatusGenerating, ProjectStatusDeploying},
	}

	for _, from := range allProjectStatuses {
		for _, to := range allProjectStatuses {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				want := from == to
				for _, a := range allowed[from] {
					if a == to {
						want = true
					}
				}
				assert.Equal(t, want, CanTransition(from, to))

				err := ValidateTransition(from, to)
				if want {
					assert.NoError(t, err)
					return
				}
				var transitionErr *TransitionError
				require.True(t, errors.As(err, &transitionErr))
				assert.Equal(t, from, transitionErr.From)
				assert.Equal(t, to, transitionErr.To)
			})
		}
	}
}

func TestCanTransition_SpecificCases(t *testing.T) {
	tests := []struct {
		name string
		from ProjectStatus
		to   ProjectStatus
		want bool
	}{
		{"draft cannot deploy", ProjectStatusDraft, ProjectStatusDeploying, false},
		{"draft cannot be generated directly", ProjectStatusDraft, ProjectStatusGenerated, false},
		{"deployed can regenerate", ProjectStatusDeployed, ProjectStatusGenerating, true},
		{"generated cannot fail directly", ProjectStatusGenerated, ProjectStatusFailed, false},
		{"failed can return to draft", ProjectStatusFailed, ProjectStatusDraft, true},
		{"same state is a no-op", ProjectStatusDeploying, ProjectStatusDeploying, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestProjectTransitionTo(t *testing.T) {
	p := NewProject(uuid.New(), "demo", nil, nil, nil)
	assert.Equal(t, ProjectStatusDraft, p.Status)
	assert.Equal(t, 1, p.Version)

	err := p.TransitionTo(ProjectStatusDeploying)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, ProjectStatusDraft, p.Status)

	require.NoError(t, p.TransitionTo(ProjectStatusGenerating))
	assert.Equal(t, ProjectStatusGenerating, p.Status)
}

func TestProjectStatusRoundTrip(t *testing.T) {
	for _, s := range allProjectStatuses {
		parsed, err := ParseProjectStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseProjectStatus("running")
	assert.Error(t, err)
}

func TestDeploymentStatusIsTerminal(t *testing.T) {
	assert.False(t, DeploymentStatusPending.IsTerminal())
	assert.False(t, DeploymentStatusBuilding.IsTerminal())
	assert.True(t, DeploymentStatusSuccess.IsTerminal())
	assert.True(t, DeploymentStatusFailed.IsTerminal())
	assert.True(t, DeploymentStatusCancelled.IsTerminal())
}

func TestCodeGenerationTerminalExclusivity(t *testing.T) {
	g := NewCodeGeneration(uuid.New(), "prompt", "openai", "gpt-4o")
	g.Complete(nil, TokenUsage{InputTokens: 1, OutputTokens: 2}, 0)
	assert.Equal(t, GenerationStatusCompleted, g.Status)
	assert.NotNil(t, g.Output)
	assert.Nil(t, g.ErrorMessage)

	f := NewCodeGeneration(uuid.New(), "prompt", "openai", "gpt-4o")
	f.Fail("boom")
	assert.Equal(t, GenerationStatusFailed, f.Status)
	assert.Nil(t, f.Output)
	assert.Equal(t, "boom", f.ErrorMessageStr())
}
