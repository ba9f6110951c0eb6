package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("project not found")
	ErrForbidden              = errors.New("access to project denied")
	ErrNotGenerated           = errors.New("project has no generated code to deploy")
	ErrConcurrentModification = errors.New("project is being modified by another operation")
	ErrRunInterrupted         = errors.New("run was marked failed before it completed")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// FlowError wraps a failure of the generation or deployment flow after the
// project entered an in-progress status
type FlowError struct {
	Operation string
	Err       error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// FormatErrorForUser converts technical errors to user-friendly messages
// This should only be called at the handler level
func FormatErrorForUser(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "unique constraint") && strings.Contains(errStr, "email"):
		return "a user with this email already exists"
	case strings.Contains(errStr, "unique constraint"):
		return "this entry already exists"
	case strings.Contains(errStr, "foreign key constraint"):
		return "referenced entry does not exist"
	case strings.Contains(errStr, "record not found"):
		return "project not found"
	case strings.Contains(errStr, "database is locked"):
		return "database is busy, please retry"
	case strings.Contains(errStr, "connection"):
		return "database connection failed"
	case strings.Contains(errStr, "timeout"):
		return "operation timed out"
	case strings.Contains(errStr, "bad credentials"):
		return "source host authentication failed - please check GITHUB_TOKEN"
	case strings.Contains(errStr, "authentication required"):
		return "git authentication required - please provide valid credentials"
	case strings.Contains(errStr, "permission denied"):
		return "permission denied"
	default:
		return "an unexpected error occurred"
	}
}
