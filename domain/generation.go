package domain

import (
	"time"

	"github.com/google/uuid"
)

// CodeGeneration records one attempt to generate code for a project
type CodeGeneration struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	Prompt       string
	Model        string
	Provider     string
	Output       []GeneratedFile
	Usage        *TokenUsage
	DurationMs   *int64
	Status       GenerationStatus
	ErrorMessage *string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

func (g *CodeGeneration) ErrorMessageStr() string {
	if g.ErrorMessage == nil {
		return ""
	}
	return *g.ErrorMessage
}

// Complete marks the generation as COMPLETED with its output
func (g *CodeGeneration) Complete(files []GeneratedFile, usage TokenUsage, duration time.Duration) {
	now := time.Now()
	ms := duration.Milliseconds()
	if files == nil {
		files = []GeneratedFile{}
	}
	g.Output = files
	g.Usage = &usage
	g.DurationMs = &ms
	g.Status = GenerationStatusCompleted
	g.ErrorMessage = nil
	g.CompletedAt = &now
}

// Fail marks the generation as FAILED with the given message
func (g *CodeGeneration) Fail(message string) {
	now := time.Now()
	g.Output = nil
	g.Status = GenerationStatusFailed
	g.ErrorMessage = &message
	g.CompletedAt = &now
}

func NewCodeGeneration(projectID uuid.UUID, prompt, provider, model string) CodeGeneration {
	return CodeGeneration{
		ID:        uuid.New(),
		ProjectID: projectID,
		Prompt:    prompt,
		Provider:  provider,
		Model:     model,
		Status:    GenerationStatusPending,
	}
}
