package project

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/project"
	"github.com/oar-cd/shipyard/testing/mocks"
)

func TestNewCmdProjectGenerate(t *testing.T) {
	projectID := uuid.New()
	generationID := uuid.New()
	var gotOpts project.GenerateOptions
	useMock(t, &mocks.MockProjectManager{
		GenerateFunc: func(principal domain.Principal, id uuid.UUID, opts project.GenerateOptions) (*project.GenerateResult, error) {
			assert.Equal(t, projectID, id)
			gotOpts = opts
			return &project.GenerateResult{
				GenerationID: generationID,
				Files: []domain.GeneratedFile{
					{Path: "index.html", Content: "<html></html>"},
					{Path: "style.css", Content: "body {}"},
				},
				Usage:      domain.TokenUsage{InputTokens: 120, OutputTokens: 800},
				DurationMs: 1500,
				Provider:   "anthropic",
				Model:      "claude-sonnet-4-20250514",
				Version:    2,
			}, nil
		},
	})

	stdout, err := execute(NewCmdProjectGenerate(), projectID.String(), "--provider", "anthropic", "--prompt", "Make it blue")
	require.NoError(t, err)

	assert.Equal(t, project.GenerateOptions{Prompt: "Make it blue", Provider: "anthropic"}, gotOpts)
	assert.Contains(t, stdout, "Generation completed")
	assert.Contains(t, stdout, generationID.String())
	assert.Contains(t, stdout, "120 in / 800 out")
	assert.Contains(t, stdout, "1.5s")
	assert.Contains(t, stdout, "index.html")
	assert.Contains(t, stdout, "style.css")
}

func TestNewCmdProjectGenerate_Failure(t *testing.T) {
	cause := &project.FlowError{Operation: "generation", Err: errors.New("llm unavailable")}
	useMock(t, &mocks.MockProjectManager{
		GenerateFunc: func(principal domain.Principal, id uuid.UUID, opts project.GenerateOptions) (*project.GenerateResult, error) {
			return nil, cause
		},
	})

	stdout, err := execute(NewCmdProjectGenerate(), uuid.NewString())

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, stdout, "Generation failed")
}
