package model

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of staff roles the access engine understands.
type Role int

const (
	// RoleOther covers every role string outside admin and branch_manager.
	// It only grants assignment-based, read-only access.
	RoleOther Role = iota
	RoleAdmin
	RoleBranchManager
)

// ParseRole never fails: unknown strings fall back to RoleOther.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "branch_manager":
		return RoleBranchManager
	default:
		return RoleOther
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleBranchManager:
		return "branch_manager"
	case RoleOther:
		return "other"
	default:
		return "other"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// MutationPermission is the branch-manager sub-permission.
type MutationPermission string

const (
	PermissionView   MutationPermission = "view"
	PermissionUpdate MutationPermission = "update"
)

// ParseMutationPermission defaults anything unrecognised to view.
func ParseMutationPermission(s string) MutationPermission {
	if MutationPermission(strings.ToLower(strings.TrimSpace(s))) == PermissionUpdate {
		return PermissionUpdate
	}
	return PermissionView
}

// Principal is the acting staff member for one request. It is rebuilt from
// storage on every request and never mutated afterwards.
type Principal struct {
	ID                 uuid.UUID          `json:"id"`
	Role               Role               `json:"role"`
	BranchID           *uuid.UUID         `json:"branch_id,omitempty"`
	MutationPermission MutationPermission `json:"mutation_permission"`
}

// NewPrincipal builds a Principal from a staff row.
func NewPrincipal(s *Staff) *Principal {
	p := &Principal{
		ID:                 s.ID,
		Role:               ParseRole(s.Role),
		MutationPermission: ParseMutationPermission(s.Permission),
	}
	if s.BranchID != nil {
		b := *s.BranchID
		p.BranchID = &b
	}
	return p
}

// Capabilities is the output of the permission evaluator.
type Capabilities struct {
	CanViewAll bool `json:"can_view_all"`
	CanMutate  bool `json:"can_mutate"`
}
