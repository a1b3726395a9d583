package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

type branchRepository struct {
	BaseRepository
}

func NewBranchRepository(base BaseRepository) repository.BranchRepository {
	return &branchRepository{base}
}

func (r *branchRepository) List(ctx context.Context) (branches []*model.Branch, err error) {
	defer func(start time.Time) { r.observe("branches.list", start, err) }(time.Now())

	query := `SELECT id, name, created_at FROM branches ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

func (r *branchRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (branches []*model.Branch, err error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { r.observe("branches.list_by_ids", start, err) }(time.Now())

	query := `SELECT id, name, created_at FROM branches WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &branches, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}
