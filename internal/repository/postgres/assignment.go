package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

type assignmentRepository struct {
	BaseRepository
}

func NewAssignmentRepository(base BaseRepository) repository.AssignmentRepository {
	return &assignmentRepository{base}
}

const staffRefColumns = `a.case_id, a.staff_id, s.full_name, s.email, a.created_at`

func (r *assignmentRepository) ListByCase(ctx context.Context, caseID uuid.UUID) (refs []*model.StaffRef, err error) {
	defer func(start time.Time) { r.observe("case_managers.list_by_case", start, err) }(time.Now())

	query := `
		SELECT ` + staffRefColumns + `
		FROM case_managers a
		LEFT JOIN staff s ON s.id = a.staff_id
		WHERE a.case_id = $1
		ORDER BY a.created_at ASC, a.staff_id ASC
	`
	if err := r.db.SelectContext(ctx, &refs, query, caseID); err != nil {
		return nil, fmt.Errorf("failed to list case managers: %w", err)
	}
	return refs, nil
}

func (r *assignmentRepository) ListByCases(ctx context.Context, caseIDs []uuid.UUID) (refs []*model.StaffRef, err error) {
	if len(caseIDs) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { r.observe("case_managers.list_by_cases", start, err) }(time.Now())

	query := `
		SELECT ` + staffRefColumns + `
		FROM case_managers a
		LEFT JOIN staff s ON s.id = a.staff_id
		WHERE a.case_id = ANY($1::uuid[])
		ORDER BY a.case_id, a.created_at ASC, a.staff_id ASC
	`
	if err := r.db.SelectContext(ctx, &refs, query, uuidArray(caseIDs)); err != nil {
		return nil, fmt.Errorf("failed to list case managers: %w", err)
	}
	return refs, nil
}

func (r *assignmentRepository) ListCaseIDsByStaff(ctx context.Context, staffID uuid.UUID) (ids []uuid.UUID, err error) {
	defer func(start time.Time) { r.observe("case_managers.list_by_staff", start, err) }(time.Now())

	query := `SELECT case_id FROM case_managers WHERE staff_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, staffID); err != nil {
		return nil, fmt.Errorf("failed to list assigned cases: %w", err)
	}
	return ids, nil
}

func (r *assignmentRepository) InTx(ctx context.Context, fn func(tx repository.AssignmentTx) error) (err error) {
	defer func(start time.Time) { r.observe("case_managers.replace", start, err) }(time.Now())

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&assignmentTx{tx: tx})
	})
}

type assignmentTx struct {
	tx *sqlx.Tx
}

func (t *assignmentTx) LockCase(ctx context.Context, caseID uuid.UUID) error {
	var id uuid.UUID
	if err := t.tx.GetContext(ctx, &id, `SELECT id FROM cases WHERE id = $1 FOR UPDATE`, caseID); err != nil {
		return fmt.Errorf("failed to lock case: %w", notFound(err))
	}
	return nil
}

func (t *assignmentTx) DeleteByCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM case_managers WHERE case_id = $1`, caseID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear case managers: %w", err)
	}
	return result.RowsAffected()
}

// Insert selects the staff row instead of relying on the foreign key, so a
// dangling id inserts nothing rather than aborting the transaction.
func (t *assignmentTx) Insert(ctx context.Context, a *model.Assignment) (bool, error) {
	query := `
		INSERT INTO case_managers (case_id, staff_id, created_at)
		SELECT $1, s.id, $3 FROM staff s WHERE s.id = $2
		ON CONFLICT (case_id, staff_id) DO NOTHING
	`
	result, err := t.tx.ExecContext(ctx, query, a.CaseID, a.StaffID, a.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert case manager: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (t *assignmentTx) SetLegacyManager(ctx context.Context, caseID uuid.UUID, staffID *uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE cases SET manager_id = $2, updated_at = $3 WHERE id = $1`,
		caseID, staffID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update legacy manager: %w", err)
	}
	return nil
}
