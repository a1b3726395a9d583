package model

import (
	"time"

	"github.com/google/uuid"
)

// Staff is an agency employee row. Role and Permission are kept as raw
// strings; the access engine interprets them through ParseRole.
type Staff struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	FullName   *string    `db:"full_name" json:"full_name"`
	Email      *string    `db:"email" json:"email"`
	Role       string     `db:"role" json:"role"`
	BranchID   *uuid.UUID `db:"branch_id" json:"branch_id"`
	Permission string     `db:"permission" json:"permission"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Profile is a surrogate or intended-parent profile referenced by a case.
type Profile struct {
	ID       uuid.UUID `db:"id" json:"id"`
	FullName *string   `db:"full_name" json:"full_name"`
	Kind     string    `db:"kind" json:"kind"`
}

type Branch struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
