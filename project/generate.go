package project

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/codegen"
	"github.com/oar-cd/shipyard/domain"
	"github.com/oar-cd/shipyard/llm"
)

type GenerateOptions struct {
	Prompt   string // stored project prompt when empty
	Provider string // configured default when empty
	Model    string // provider default when empty
}

type GenerateResult struct {
	GenerationID uuid.UUID              `json:"generation_id"`
	Files        []domain.GeneratedFile `json:"files"`
	Usage        domain.TokenUsage      `json:"usage"`
	DurationMs   int64                  `json:"duration_ms"`
	Provider     string                 `json:"provider"`
	Model        string                 `json:"model"`
	Version      int                    `json:"version"`
}

// Generate asks an LLM for the project's code and stores the files on the project.
// Any failure after the project entered GENERATING leaves it FAILED.
func (s *ProjectService) Generate(ctx context.Context, principal domain.Principal, id uuid.UUID, opts GenerateOptions) (result *GenerateResult, err error) {
	project, err := s.Get(principal, id)
	if err != nil {
		return nil, err
	}
	if opts.Prompt != "" {
		if err := ValidatePrompt(&opts.Prompt); err != nil {
			return nil, err
		}
	}

	provider, err := s.llm.Resolve(opts.Provider)
	if err != nil {
		return nil, err
	}
	model := opts.Model
	if model == "" {
		model = provider.DefaultModel()
	}

	prompt := codegen.BuildPrompt(project, opts.Prompt)

	if err := s.acquire(project, domain.ProjectStatusGenerating); err != nil {
		return nil, err
	}

	generation := domain.NewCodeGeneration(project.ID, prompt, provider.Name().String(), model)
	finished := false
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic during code generation: %v", r)
		}
		if !finished {
			if err == nil {
				err = fmt.Errorf("code generation did not complete")
			}
			err = s.handleGenerationError(ctx, principal, project, &generation, err)
		}
	}()

	generation.Status = domain.GenerationStatusProcessing
	if err := s.generationRepository.Create(&generation); err != nil {
		return nil, err
	}

	slog.Info("Generating code",
		"project_id", project.ID,
		"generation_id", generation.ID,
		"provider", provider.Name(),
		"model", model)

	resp, err := s.llm.Generate(ctx, provider.Name().String(), llm.Request{
		Prompt:       prompt,
		SystemPrompt: codegen.SystemPrompt,
		Model:        model,
	})
	if err != nil {
		return nil, err
	}

	files, err := s.parser.Parse(resp.Content)
	if err != nil {
		return nil, err
	}

	if resp.Model != "" {
		generation.Model = resp.Model
	}
	usage := domain.TokenUsage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	generation.Complete(files, usage, resp.Duration)

	// The project row is claimed first: once it leaves GENERATING, stale recovery
	// can no longer fail this generation.
	generated := *project
	generated.GeneratedFiles = generation.Output
	generated.Version++
	if err := generated.TransitionTo(domain.ProjectStatusGenerated); err != nil {
		return nil, err
	}
	ok, err := s.projectRepository.FinishRun(&generated, domain.ProjectStatusGenerating)
	if err != nil {
		return nil, err
	}
	if !ok {
		finished = true
		slog.Warn("Dropping late generation result",
			"layer", "service",
			"project_id", project.ID,
			"generation_id", generation.ID,
			"file_count", len(files))
		return nil, &FlowError{Operation: "code generation", Err: ErrRunInterrupted}
	}
	*project = generated
	finished = true

	if _, err := s.generationRepository.UpdateUnfinished(&generation); err != nil {
		slog.Error("Failed to update generation record as completed",
			"project_id", project.ID,
			"generation_id", generation.ID,
			"error", err)
	}

	s.recordAudit(ctx, audit.Entry{
		Actor:        &principal,
		Action:       domain.AuditActionCreate,
		ResourceType: domain.AuditResourceGeneration,
		ResourceID:   generation.ID.String(),
		NewValues: map[string]any{
			"project_id": project.ID.String(),
			"status":     generation.Status.String(),
			"version":    project.Version,
			"file_count": len(files),
		},
		Details: map[string]any{
			"provider":      generation.Provider,
			"model":         generation.Model,
			"input_tokens":  usage.InputTokens,
			"output_tokens": usage.OutputTokens,
		},
		Severity: domain.AuditSeverityInfo,
		Category: domain.AuditCategoryDataAccess,
	})

	slog.Info("Code generated",
		"project_id", project.ID,
		"generation_id", generation.ID,
		"file_count", len(files),
		"version", project.Version)

	return &GenerateResult{
		GenerationID: generation.ID,
		Files:        generation.Output,
		Usage:        usage,
		DurationMs:   *generation.DurationMs,
		Provider:     generation.Provider,
		Model:        generation.Model,
		Version:      project.Version,
	}, nil
}

// handleGenerationError handles generation errors consistently
func (s *ProjectService) handleGenerationError(
	ctx context.Context,
	principal domain.Principal,
	project *domain.Project,
	generation *domain.CodeGeneration,
	err error,
) error {
	generation.Fail(err.Error())
	if _, updateErr := s.generationRepository.UpdateUnfinished(generation); updateErr != nil {
		slog.Error("Failed to update generation record as failed",
			"generation_id", generation.ID,
			"project_id", project.ID,
			"error", updateErr)
	}

	s.failRun(project, domain.ProjectStatusGenerating)

	_ = s.auditRecorder.RecordError(ctx, &principal, domain.AuditResourceGeneration, generation.ID.String(), err, map[string]any{
		"project_id": project.ID.String(),
		"provider":   generation.Provider,
		"model":      generation.Model,
	})

	slog.Error("Code generation failed",
		"project_id", project.ID,
		"generation_id", generation.ID,
		"error", err)
	return &FlowError{Operation: "code generation", Err: err}
}
