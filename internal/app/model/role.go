package model

import (
	"strings"

	apperrors "video-qa/internal/app/errors"
)

// Role selects which descriptor fields and which index a query runs against
type Role string

const (
	RoleTechnical  Role = "technical"
	RoleContent    Role = "content"
	RoleProduction Role = "production"
)

// AllRoles lists every role in index order
func AllRoles() []Role {
	return []Role{RoleTechnical, RoleContent, RoleProduction}
}

// ParseRole accepts both index names and persona names
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "technical", "director":
		return RoleTechnical, nil
	case "content", "actor":
		return RoleContent, nil
	case "production", "producer":
		return RoleProduction, nil
	}
	return "", apperrors.Wrapf(apperrors.ErrUnknownRole, "role %q", s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleTechnical, RoleContent, RoleProduction:
		return true
	}
	return false
}

// Persona returns the consumer persona served by the role
func (r Role) Persona() string {
	switch r {
	case RoleTechnical:
		return "director"
	case RoleProduction:
		return "producer"
	default:
		return "actor"
	}
}

func (r Role) String() string {
	return string(r)
}
