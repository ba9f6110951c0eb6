package handlers

import (
	"errors"
	"net/http"

	"github.com/oar-cd/shipyard/auth"
	"github.com/oar-cd/shipyard/codegen"
	"github.com/oar-cd/shipyard/deploytarget"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
	"github.com/oar-cd/shipyard/pipeline"
	"github.com/oar-cd/shipyard/project"
	"github.com/oar-cd/shipyard/sourcehost"
)

// ErrRateLimited is returned when a caller exceeds its request quota
var ErrRateLimited = errors.New("rate limit exceeded, please retry later")

// StatusForError maps service errors to HTTP status codes.
// Wrapped causes are checked before the generic flow failure.
func StatusForError(err error) int {
	var (
		validationErr *project.ValidationError
		transitionErr *domain.TransitionError
		notImplErr    *pipeline.NotImplementedError
		flowErr       *project.FlowError
	)

	switch {
	case errors.As(err, &validationErr), errors.Is(err, llm.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, errNoPrincipal):
		return http.StatusUnauthorized
	case errors.Is(err, project.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, project.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &notImplErr):
		return http.StatusNotImplemented
	case errors.Is(err, deploytarget.ErrDeploymentTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrProviderNotConfigured),
		errors.Is(err, sourcehost.ErrNotConfigured),
		errors.Is(err, deploytarget.ErrNotConfigured),
		errors.Is(err, project.ErrNotGenerated),
		errors.Is(err, project.ErrConcurrentModification),
		errors.Is(err, project.ErrRunInterrupted),
		errors.As(err, &transitionErr):
		return http.StatusConflict
	case errors.Is(err, codegen.ErrParseResponse), errors.As(err, &flowErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MessageForError hides internal error details behind a user friendly message
func MessageForError(err error, status int) string {
	if status == http.StatusInternalServerError {
		return project.FormatErrorForUser(err)
	}
	return err.Error()
}
