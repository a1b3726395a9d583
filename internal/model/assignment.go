package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links one staff member to one case. CreatedAt orders the
// assignees of a case.
type Assignment struct {
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	StaffID   uuid.UUID `db:"staff_id" json:"staff_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StaffRef is an assignee as shown to callers.
type StaffRef struct {
	ID         uuid.UUID `db:"staff_id" json:"id"`
	CaseID     uuid.UUID `db:"case_id" json:"-"`
	FullName   *string   `db:"full_name" json:"full_name"`
	Email      *string   `db:"email" json:"email"`
	AssignedAt time.Time `db:"created_at" json:"assigned_at"`
}

// PartialAssignment describes a replace whose stored set is smaller than the
// requested one.
type PartialAssignment struct {
	Requested   int         `json:"requested"`
	Stored      int         `json:"stored"`
	RejectedIDs []uuid.UUID `json:"rejected_ids"`
}

// AssignmentEvent is published after a successful replace.
type AssignmentEvent struct {
	CaseID     uuid.UUID   `json:"case_id"`
	ActorID    uuid.UUID   `json:"actor_id"`
	ManagerIDs []uuid.UUID `json:"manager_ids"`
	Partial    bool        `json:"partial"`
	At         time.Time   `json:"at"`
}

const AssignmentEventChannel = "case.managers.replaced"
