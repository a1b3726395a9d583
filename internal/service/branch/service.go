// Package branch serves branch reference data. Names are cached because they
// are read on every case listing and change rarely.
package branch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

type Service struct {
	repo  repository.BranchRepository
	cache *cache.Cache
}

func NewService(repo repository.BranchRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// List returns every branch and refreshes the name cache.
func (s *Service) List(ctx context.Context) ([]*model.Branch, error) {
	branches, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list branches: %w", err))
	}
	for _, b := range branches {
		s.cache.Set(b.ID.String(), b.Name, cache.DefaultExpiration)
	}
	if branches == nil {
		branches = []*model.Branch{}
	}
	return branches, nil
}

// Names resolves branch ids to names. Unknown ids are absent from the result.
func (s *Service) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	var misses []uuid.UUID
	for _, id := range ids {
		if _, done := names[id]; done {
			continue
		}
		if cached, found := s.cache.Get(id.String()); found {
			names[id] = cached.(string)
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return names, nil
	}

	branches, err := s.repo.ListByIDs(ctx, misses)
	if err != nil {
		return names, fmt.Errorf("failed to load branch names: %w", err)
	}
	for _, b := range branches {
		names[b.ID] = b.Name
		s.cache.Set(b.ID.String(), b.Name, cache.DefaultExpiration)
	}
	return names, nil
}
