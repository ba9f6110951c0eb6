package domain

import "fmt"

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus int

const (
	ProjectStatusUnknown ProjectStatus = iota
	ProjectStatusDraft
	ProjectStatusGenerating
	ProjectStatusGenerated
	ProjectStatusDeploying
	ProjectStatusDeployed
	ProjectStatusFailed
)

func (s ProjectStatus) String() string {
	switch s {
	case ProjectStatusDraft:
		return "DRAFT"
	case ProjectStatusGenerating:
		return "GENERATING"
	case ProjectStatusGenerated:
		return "GENERATED"
	case ProjectStatusDeploying:
		return "DEPLOYING"
	case ProjectStatusDeployed:
		return "DEPLOYED"
	case ProjectStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch s {
	case "DRAFT":
		return ProjectStatusDraft, nil
	case "GENERATING":
		return ProjectStatusGenerating, nil
	case "GENERATED":
		return ProjectStatusGenerated, nil
	case "DEPLOYING":
		return ProjectStatusDeploying, nil
	case "DEPLOYED":
		return ProjectStatusDeployed, nil
	case "FAILED":
		return ProjectStatusFailed, nil
	default:
		return ProjectStatusUnknown, fmt.Errorf("invalid project status: %q", s)
	}
}

// projectTransitions lists the legal targets for every source status.
// Staying in the same status is always allowed and not listed here.
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:      {ProjectStatusGenerating},
	ProjectStatusGenerating: {ProjectStatusGenerated, ProjectStatusFailed},
	ProjectStatusGenerated:  {ProjectStatusGenerating, ProjectStatusDeploying},
	ProjectStatusDeploying:  {ProjectStatusDeployed, ProjectStatusFailed},
	ProjectStatusDeployed:   {ProjectStatusGenerating, ProjectStatusDeploying},
	ProjectStatusFailed:     {ProjectStatusDraft, ProjectStatusGenerating, ProjectStatusDeploying},
}

// CanTransition reports whether a project may move from one status to another
func CanTransition(from, to ProjectStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range projectTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionError is returned when a status change is not in the transition table
type TransitionError struct {
	From ProjectStatus
	To   ProjectStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// ValidateTransition returns a *TransitionError when the transition is illegal
func ValidateTransition(from, to ProjectStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// GenerationStatus represents the status of a single code generation run
type GenerationStatus int

const (
	GenerationStatusUnknown GenerationStatus = iota
	GenerationStatusPending
	GenerationStatusProcessing
	GenerationStatusCompleted
	GenerationStatusFailed
)

func (s GenerationStatus) String() string {
	switch s {
	case GenerationStatusPending:
		return "PENDING"
	case GenerationStatusProcessing:
		return "PROCESSING"
	case GenerationStatusCompleted:
		return "COMPLETED"
	case GenerationStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func ParseGenerationStatus(s string) (GenerationStatus, error) {
	switch s {
	case "PENDING":
		return GenerationStatusPending, nil
	case "PROCESSING":
		return GenerationStatusProcessing, nil
	case "COMPLETED":
		return GenerationStatusCompleted, nil
	case "FAILED":
		return GenerationStatusFailed, nil
	default:
		return GenerationStatusUnknown, fmt.Errorf("invalid generation status: %q", s)
	}
}

// IsTerminal reports whether the generation can no longer change
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// DeploymentStatus represents the status of a deployment
type DeploymentStatus int

const (
	DeploymentStatusUnknown DeploymentStatus = iota
	DeploymentStatusPending
	DeploymentStatusBuilding
	DeploymentStatusSuccess
	DeploymentStatusFailed
	DeploymentStatusCancelled
)

func (s DeploymentStatus) String() string {
	switch s {
	case DeploymentStatusPending:
		return "PENDING"
	case DeploymentStatusBuilding:
		return "BUILDING"
	case DeploymentStatusSuccess:
		return "SUCCESS"
	case DeploymentStatusFailed:
		return "FAILED"
	case DeploymentStatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

func ParseDeploymentStatus(s string) (DeploymentStatus, error) {
	switch s {
	case "PENDING":
		return DeploymentStatusPending, nil
	case "BUILDING":
		return DeploymentStatusBuilding, nil
	case "SUCCESS":
		return DeploymentStatusSuccess, nil
	case "FAILED":
		return DeploymentStatusFailed, nil
	case "CANCELLED":
		return DeploymentStatusCancelled, nil
	default:
		return DeploymentStatusUnknown, fmt.Errorf("invalid deployment status: %q", s)
	}
}

// IsTerminal reports whether the deployment can no longer change
func (s DeploymentStatus) IsTerminal() bool {
	switch s {
	case DeploymentStatusSuccess, DeploymentStatusFailed, DeploymentStatusCancelled:
		return true
	default:
		return false
	}
}
