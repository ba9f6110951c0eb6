package project

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/domain"
)

const staleRunMessage = "run interrupted before completion"

// RecoverStale marks projects stuck in GENERATING or DEPLOYING since before the
// cutoff as FAILED, together with their unfinished generations and deployments.
// It returns the number of projects recovered.
func (s *ProjectService) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	stale, err := s.projectRepository.ListStale(
		[]domain.ProjectStatus{domain.ProjectStatusGenerating, domain.ProjectStatusDeploying},
		cutoff,
	)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "service",
			"operation", "list_stale_projects",
			"error", err)
		return 0, err
	}

	var errs []error
	recovered := 0
	for _, project := range stale {
		from := project.Status
		ok, err := s.projectRepository.CompareAndSwapStatus(project.ID, from, domain.ProjectStatusFailed)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			// The run finished between listing and swapping
			continue
		}
		recovered++

		s.failUnfinishedRuns(project)

		s.recordAudit(ctx, audit.Entry{
			Action:       domain.AuditActionRecover,
			ResourceType: domain.AuditResourceProject,
			ResourceID:   project.ID.String(),
			OldValues:    map[string]any{"status": from.String()},
			NewValues:    map[string]any{"status": domain.ProjectStatusFailed.String()},
			Details:      map[string]any{"stale_since": project.UpdatedAt, "reason": staleRunMessage},
			Severity:     domain.AuditSeverityWarning,
			Category:     domain.AuditCategorySystem,
		})

		slog.Warn("Recovered stale project",
			"project_id", project.ID,
			"from_status", from,
			"updated_at", project.UpdatedAt)
	}

	return recovered, errors.Join(errs...)
}

func (s *ProjectService) failUnfinishedRuns(project *domain.Project) {
	generations, err := s.generationRepository.ListByProjectID(project.ID)
	if err != nil {
		slog.Error("Failed to list generations of stale project", "project_id", project.ID, "error", err)
	}
	for _, g := range generations {
		if g.Status.IsTerminal() {
			continue
		}
		g.Fail(staleRunMessage)
		if _, err := s.generationRepository.UpdateUnfinished(g); err != nil {
			slog.Error("Failed to update generation record as failed", "generation_id", g.ID, "error", err)
		}
	}

	deployments, err := s.deploymentRepository.ListByProjectID(project.ID)
	if err != nil {
		slog.Error("Failed to list deployments of stale project", "project_id", project.ID, "error", err)
	}
	for _, d := range deployments {
		if d.Status.IsTerminal() {
			continue
		}
		d.Fail(staleRunMessage)
		if _, err := s.deploymentRepository.UpdateUnfinished(d); err != nil {
			slog.Error("Failed to update deployment record as failed", "deployment_id", d.ID, "error", err)
		}
	}
}
