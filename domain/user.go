package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role: %q", s)
	}
}

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// Principal is the authenticated caller of an operation
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether the principal may read or modify a project
func (p Principal) CanAccess(project *Project) bool {
	return p.IsAdmin() || project.OwnerID == p.ID
}

// RequestMeta carries request details recorded alongside audit entries
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}
