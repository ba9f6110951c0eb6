// Package utils provides utility functions for CLI commands in Shipyard.
package utils

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/domain"
)

// CommandError logs a failed command and wraps the error for cobra to print
func CommandError(operation string, err error, context ...any) error {
	slog.Error("Command failed", append([]any{"operation", operation, "error", err}, context...)...)
	return fmt.Errorf("%s failed: %w", operation, err)
}

// ParseProjectID parses a project ID argument
func ParseProjectID(operation, input string) (uuid.UUID, error) {
	id, err := uuid.Parse(input)
	if err != nil {
		slog.Warn("Invalid UUID provided", "operation", operation, "input", input)
		return uuid.Nil, fmt.Errorf("invalid project ID '%s': must be a valid UUID", input)
	}
	return id, nil
}

// Operator returns the principal CLI commands act as
func Operator(operation string) (domain.Principal, error) {
	principal, err := app.GetOperator()
	if err != nil {
		return domain.Principal{}, CommandError(operation, err)
	}
	return principal, nil
}
