package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

const staffColumns = `id, full_name, email, role, branch_id, permission, created_at`

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (s *model.Staff, err error) {
	defer func(start time.Time) { r.observe("staff.get", start, err) }(time.Now())

	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	var staff model.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", notFound(err))
	}
	return &staff, nil
}

func (r *staffRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (staff []*model.Staff, err error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { r.observe("staff.list_by_ids", start, err) }(time.Now())

	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &staff, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}
