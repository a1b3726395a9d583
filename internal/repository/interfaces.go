package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	StaffRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Staff, error)
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Staff, error)
	}

	ProfileRepository interface {
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error)
	}

	BranchRepository interface {
		List(ctx context.Context) ([]*model.Branch, error)
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Branch, error)
	}

	CaseRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Case, error)
		// List returns cases matching pred and filters, newest first.
		List(ctx context.Context, pred model.VisibilityPredicate, filters model.CaseFilters) ([]*model.Case, error)
		Update(ctx context.Context, id uuid.UUID, patch *model.CasePatch) (*model.Case, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// AssignmentReader is the read side of the staff<->case relation.
	AssignmentReader interface {
		// ListByCase returns assignees oldest first.
		ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.StaffRef, error)
		// ListByCases batch-loads assignees for many cases, oldest first per case.
		ListByCases(ctx context.Context, caseIDs []uuid.UUID) ([]*model.StaffRef, error)
		ListCaseIDsByStaff(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error)
	}

	// AssignmentTx is the set of writes available inside a replace transaction.
	AssignmentTx interface {
		// LockCase locks the case row until commit; ErrNotFound if absent.
		LockCase(ctx context.Context, caseID uuid.UUID) error
		DeleteByCase(ctx context.Context, caseID uuid.UUID) (int64, error)
		// Insert stores a row only if the staff member exists. It reports
		// false, without failing the transaction, for a dangling staff id.
		Insert(ctx context.Context, a *model.Assignment) (bool, error)
		SetLegacyManager(ctx context.Context, caseID uuid.UUID, staffID *uuid.UUID) error
	}

	AssignmentRepository interface {
		AssignmentReader
		// InTx runs fn in one storage transaction, committing only if fn
		// returns nil.
		InTx(ctx context.Context, fn func(tx AssignmentTx) error) error
	}

	// Pinger reports storage liveness for readiness probes.
	Pinger interface {
		PingContext(ctx context.Context) error
	}
)
