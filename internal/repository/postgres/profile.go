package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) repository.ProfileRepository {
	return &profileRepository{base}
}

func (r *profileRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (profiles []*model.Profile, err error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { r.observe("profiles.list_by_ids", start, err) }(time.Now())

	query := `SELECT id, full_name, kind FROM profiles WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &profiles, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}
