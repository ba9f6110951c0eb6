package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oar-cd/shipyard/auth"
	"github.com/oar-cd/shipyard/codegen"
	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
	"github.com/oar-cd/shipyard/sourcehost"
)

func flow(err error) error {
	return &project.FlowError{Operation: "deployment", Err: err}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &project.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest},
		{"unknown llm", fmt.Errorf("%w: foo", llm.ErrUnknownProvider), http.StatusBadRequest},
		{"missing token", auth.ErrMissingToken, http.StatusUnauthorized},
		{"invalid token", fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized},
		{"forbidden", project.ErrForbidden, http.StatusForbidden},
		{"not found", project.ErrNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"llm not configured", fmt.Errorf("%w: google", llm.ErrProviderNotConfigured), http.StatusConflict},
		{"github not configured", flow(sourcehost.ErrNotConfigured), http.StatusConflict},
		{"vercel not configured", flow(fmt.Errorf("%w: vercel", deploytarget.ErrNotConfigured)), http.StatusConflict},
		{"not generated", project.ErrNotGenerated, http.StatusConflict},
		{"concurrent", project.ErrConcurrentModification, http.StatusConflict},
		{"interrupted run", flow(project.ErrRunInterrupted), http.StatusConflict},
		{"transition", &domain.TransitionError{From: domain.ProjectStatusDraft, To: domain.ProjectStatusDeployed}, http.StatusConflict},
		{"not implemented", flow(&pipeline.NotImplementedError{Provider: domain.DeployProviderNetlify}), http.StatusNotImplemented},
		{"timeout", flow(deploytarget.ErrDeploymentTimeout), http.StatusGatewayTimeout},
		{"terminal state", flow(&deploytarget.TerminalStateError{State: deploytarget.StateError}), http.StatusBadGateway},
		{"parse", &project.FlowError{Operation: "code generation", Err: codegen.ErrParseResponse}, http.StatusBadGateway},
		{"unexpected", errors.New("disk I/O error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusForError(tt.err))
		})
	}
}

func TestMessageForError(t *testing.T) {
	assert.Equal(t, "project not found", MessageForError(project.ErrNotFound, http.StatusNotFound))
	assert.Equal(t, "database is busy, please retry",
		MessageForError(errors.New("database is locked"), http.StatusInternalServerError))
	assert.Equal(t, "an unexpected error occurred",
		MessageForError(errors.New("SQL logic error near SELECT"), http.StatusInternalServerError))
}
