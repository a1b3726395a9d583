package model

import (
	"time"

	"github.com/google/uuid"
)

// Case is a match between a gestational carrier and intended parent(s).
// LegacyManagerID mirrors the first assignee and is only written by the
// assignment store.
type Case struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	CaseNumber       string     `db:"case_number" json:"case_number"`
	BranchID         *uuid.UUID `db:"branch_id" json:"branch_id"`
	LegacyManagerID  *uuid.UUID `db:"manager_id" json:"manager_id"`
	SurrogateID      *uuid.UUID `db:"surrogate_id" json:"surrogate_id"`
	IntendedParentID *uuid.UUID `db:"intended_parent_id" json:"intended_parent_id"`
	Status           string     `db:"status" json:"status"`
	ClinicName       *string    `db:"clinic_name" json:"clinic_name"`
	TransferDate     *time.Time `db:"transfer_date" json:"transfer_date"`
	DueDate          *time.Time `db:"due_date" json:"due_date"`
	Notes            *string    `db:"notes" json:"notes"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// CaseView is a case enriched with denormalized display fields.
type CaseView struct {
	*Case
	SurrogateName      *string     `json:"surrogate_name"`
	IntendedParentName *string     `json:"intended_parent_name"`
	BranchName         *string     `json:"branch_name"`
	ManagerName        *string     `json:"manager_name"`
	ManagerIDs         []uuid.UUID `json:"manager_ids"`
}

// CaseFilters are the user-supplied listing filters.
type CaseFilters struct {
	Search         string     `form:"search"`
	Status         string     `form:"status"`
	BranchOverride *uuid.UUID `form:"-"`
}

// CasePatch carries the fields a PATCH may change. Nil means unchanged.
// The legacy manager is intentionally absent.
type CasePatch struct {
	Status           *string    `json:"status" validate:"omitempty,min=1,max=64"`
	BranchID         *uuid.UUID `json:"branch_id"`
	SurrogateID      *uuid.UUID `json:"surrogate_id"`
	IntendedParentID *uuid.UUID `json:"intended_parent_id"`
	ClinicName       *string    `json:"clinic_name" validate:"omitempty,max=255"`
	TransferDate     *time.Time `json:"transfer_date"`
	DueDate          *time.Time `json:"due_date"`
	Notes            *string    `json:"notes" validate:"omitempty,max=10000"`
}

// Empty reports whether the patch changes nothing.
func (p *CasePatch) Empty() bool {
	return p.Status == nil && p.BranchID == nil && p.SurrogateID == nil &&
		p.IntendedParentID == nil && p.ClinicName == nil && p.TransferDate == nil &&
		p.DueDate == nil && p.Notes == nil
}

// Apply copies the set fields onto c.
func (p *CasePatch) Apply(c *Case) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.BranchID != nil {
		c.BranchID = p.BranchID
	}
	if p.SurrogateID != nil {
		c.SurrogateID = p.SurrogateID
	}
	if p.IntendedParentID != nil {
		c.IntendedParentID = p.IntendedParentID
	}
	if p.ClinicName != nil {
		c.ClinicName = p.ClinicName
	}
	if p.TransferDate != nil {
		c.TransferDate = p.TransferDate
	}
	if p.DueDate != nil {
		c.DueDate = p.DueDate
	}
	if p.Notes != nil {
		c.Notes = p.Notes
	}
}
