package project

import (
	"strings"
	"unicode/utf8"

	"github.com/oar-cd/shipyard/domain"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	MaxPromptLength      = 10000
)

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if n > MaxNameLength {
		return &ValidationError{Field: "name", Message: "must be at most 100 characters"}
	}
	return nil
}

func ValidateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Message: "must be at most 1000 characters"}
	}
	return nil
}

func ValidatePrompt(prompt *string) error {
	if prompt != nil && utf8.RuneCountInString(*prompt) > MaxPromptLength {
		return &ValidationError{Field: "prompt", Message: "must be at most 10000 characters"}
	}
	return nil
}

func ValidateTechStack(items []domain.TechStackItem) error {
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return &ValidationError{Field: "tech_stack", Message: "every entry needs a name"}
		}
		if !item.Category.IsValid() {
			return &ValidationError{Field: "tech_stack", Message: "unknown category " + string(item.Category)}
		}
	}
	return nil
}

func ValidateEnvVariables(env map[string]string) error {
	for key := range env {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{Field: "env_variables", Message: "keys must not be empty"}
		}
	}
	return nil
}
