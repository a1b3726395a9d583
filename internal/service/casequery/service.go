// Package casequery answers every case read and write on behalf of a
// principal. Each call recomputes the principal's visibility predicate, so
// no path reaches the cases table unscoped.
package casequery

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
	"github.com/jwalitptl/caseops-api/internal/service/permission"
	"github.com/jwalitptl/caseops-api/internal/service/visibility"
	"github.com/jwalitptl/caseops-api/pkg/errors"
	"github.com/jwalitptl/caseops-api/pkg/logger"
	"github.com/jwalitptl/caseops-api/pkg/metrics"
)

// BranchNamer resolves branch display names.
type BranchNamer interface {
	Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type CaseQueryServicer interface {
	List(ctx context.Context, p *model.Principal, filters model.CaseFilters) ([]*model.CaseView, error)
	Get(ctx context.Context, p *model.Principal, caseID uuid.UUID) (*model.CaseView, error)
	Update(ctx context.Context, p *model.Principal, caseID uuid.UUID, patch *model.CasePatch) (*model.CaseView, error)
	Delete(ctx context.Context, p *model.Principal, caseID uuid.UUID) error
	Authorize(ctx context.Context, p *model.Principal, caseID uuid.UUID, mutate bool) (*model.Case, error)
}

type Repositories struct {
	Cases       repository.CaseRepository
	Assignments repository.AssignmentReader
	Profiles    repository.ProfileRepository
	Staff       repository.StaffRepository
}

type Service struct {
	cases       repository.CaseRepository
	assignments repository.AssignmentReader
	profiles    repository.ProfileRepository
	staff       repository.StaffRepository
	branches    BranchNamer
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewService(repos Repositories, branches BranchNamer, m *metrics.Metrics, log *logger.Logger) *Service {
	if m == nil {
		m = metrics.Nop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		cases:       repos.Cases,
		assignments: repos.Assignments,
		profiles:    repos.Profiles,
		staff:       repos.Staff,
		branches:    branches,
		metrics:     m,
		logger:      log,
	}
}

// Scope computes p's visibility predicate. Failing to load p's assignments
// fails the request rather than falling back to a narrower or wider scope.
func (s *Service) Scope(ctx context.Context, p *model.Principal) (model.VisibilityPredicate, error) {
	if p == nil {
		return model.MatchNothing(), errors.Unauthorized(fmt.Errorf("no principal"))
	}

	var assigned []uuid.UUID
	if !permission.Evaluate(p).CanViewAll {
		ids, err := s.assignments.ListCaseIDsByStaff(ctx, p.ID)
		if err != nil {
			return model.MatchNothing(), errors.Internal(fmt.Errorf("failed to load assigned cases: %w", err))
		}
		assigned = ids
	}

	pred := visibility.Scope(p, assigned)
	s.metrics.VisibilityScopes.WithLabelValues(pred.Kind.String()).Inc()
	return pred, nil
}

// List returns the enriched cases visible to p that match filters, newest
// first.
func (s *Service) List(ctx context.Context, p *model.Principal, filters model.CaseFilters) ([]*model.CaseView, error) {
	pred, err := s.Scope(ctx, p)
	if err != nil {
		return nil, err
	}
	pred = visibility.ApplyBranchOverride(pred, filters.BranchOverride)

	if pred.MatchesNothing() {
		return []*model.CaseView{}, nil
	}

	cases, err := s.cases.List(ctx, pred, filters)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list cases: %w", err))
	}
	return s.enrich(ctx, cases), nil
}

// Authorize loads caseID if p may see it and, when mutate is set, change it.
// The mutation check runs first and needs no storage access. A case p cannot
// see is reported as not found so its existence is not leaked.
func (s *Service) Authorize(ctx context.Context, p *model.Principal, caseID uuid.UUID, mutate bool) (*model.Case, error) {
	if p == nil {
		return nil, errors.Unauthorized(fmt.Errorf("no principal"))
	}
	if mutate {
		if err := permission.RequireMutate(p); err != nil {
			return nil, err
		}
	}

	pred, err := s.Scope(ctx, p)
	if err != nil {
		return nil, err
	}

	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("case", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load case: %w", err))
	}
	if !pred.Matches(c) {
		return nil, errors.NotFound("case", nil)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, p *model.Principal, caseID uuid.UUID) (*model.CaseView, error) {
	c, err := s.Authorize(ctx, p, caseID, false)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, []*model.Case{c})[0], nil
}

// Update applies patch. The legacy manager column is not part of a patch.
func (s *Service) Update(ctx context.Context, p *model.Principal, caseID uuid.UUID, patch *model.CasePatch) (*model.CaseView, error) {
	if patch == nil {
		return nil, errors.BadRequest("empty update", nil)
	}
	if _, err := s.Authorize(ctx, p, caseID, true); err != nil {
		return nil, err
	}

	updated, err := s.cases.Update(ctx, caseID, patch)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("case", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to update case: %w", err))
	}

	s.logger.Info("case updated", "case_id", caseID.String(), "actor_id", p.ID.String())
	return s.enrich(ctx, []*model.Case{updated})[0], nil
}

func (s *Service) Delete(ctx context.Context, p *model.Principal, caseID uuid.UUID) error {
	if _, err := s.Authorize(ctx, p, caseID, true); err != nil {
		return err
	}
	if err := s.cases.Delete(ctx, caseID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("case", err)
		}
		return errors.Internal(fmt.Errorf("failed to delete case: %w", err))
	}

	s.logger.Info("case deleted", "case_id", caseID.String(), "actor_id", p.ID.String())
	return nil
}

// enrich attaches display fields using one batched lookup per related table.
// A failed lookup leaves its fields null; it never fails the read.
func (s *Service) enrich(ctx context.Context, cases []*model.Case) []*model.CaseView {
	views := make([]*model.CaseView, 0, len(cases))
	if len(cases) == 0 {
		return views
	}

	var (
		caseIDs    = make([]uuid.UUID, 0, len(cases))
		profileIDs []uuid.UUID
		branchIDs  []uuid.UUID
	)
	for _, c := range cases {
		caseIDs = append(caseIDs, c.ID)
		if c.SurrogateID != nil {
			profileIDs = append(profileIDs, *c.SurrogateID)
		}
		if c.IntendedParentID != nil {
			profileIDs = append(profileIDs, *c.IntendedParentID)
		}
		if c.BranchID != nil {
			branchIDs = append(branchIDs, *c.BranchID)
		}
	}

	managersLoaded := true
	byCase := make(map[uuid.UUID][]*model.StaffRef, len(cases))
	refs, err := s.assignments.ListByCases(ctx, caseIDs)
	if err != nil {
		managersLoaded = false
		s.logger.Warn("case manager enrichment failed", "error", err.Error())
	}
	for _, r := range refs {
		byCase[r.CaseID] = append(byCase[r.CaseID], r)
	}

	var legacyIDs []uuid.UUID
	if managersLoaded {
		for _, c := range cases {
			if len(byCase[c.ID]) == 0 && c.LegacyManagerID != nil {
				legacyIDs = append(legacyIDs, *c.LegacyManagerID)
			}
		}
	}
	legacy := s.staffNames(ctx, legacyIDs)
	profiles := s.profileNames(ctx, profileIDs)
	branches := s.branchNames(ctx, branchIDs)

	for _, c := range cases {
		v := &model.CaseView{Case: c}
		if c.SurrogateID != nil {
			v.SurrogateName = profiles[*c.SurrogateID]
		}
		if c.IntendedParentID != nil {
			v.IntendedParentName = profiles[*c.IntendedParentID]
		}
		if c.BranchID != nil {
			if name, ok := branches[*c.BranchID]; ok {
				name := name
				v.BranchName = &name
			}
		}

		if managersLoaded {
			if assigned := byCase[c.ID]; len(assigned) > 0 {
				v.ManagerIDs = make([]uuid.UUID, 0, len(assigned))
				names := make([]*string, 0, len(assigned))
				for _, r := range assigned {
					v.ManagerIDs = append(v.ManagerIDs, r.ID)
					names = append(names, r.FullName)
				}
				v.ManagerName = joinNames(names)
			} else if c.LegacyManagerID != nil {
				v.ManagerIDs = []uuid.UUID{*c.LegacyManagerID}
				v.ManagerName = legacy[*c.LegacyManagerID]
			} else {
				v.ManagerIDs = []uuid.UUID{}
			}
		}
		views = append(views, v)
	}
	return views
}

func (s *Service) profileNames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]*string {
	out := make(map[uuid.UUID]*string, len(ids))
	if len(ids) == 0 {
		return out
	}
	profiles, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("profile enrichment failed", "error", err.Error())
		return out
	}
	for _, p := range profiles {
		out[p.ID] = p.FullName
	}
	return out
}

func (s *Service) staffNames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]*string {
	out := make(map[uuid.UUID]*string, len(ids))
	if len(ids) == 0 {
		return out
	}
	staff, err := s.staff.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("legacy manager enrichment failed", "error", err.Error())
		return out
	}
	for _, st := range staff {
		out[st.ID] = st.FullName
	}
	return out
}

func (s *Service) branchNames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	if len(ids) == 0 || s.branches == nil {
		return map[uuid.UUID]string{}
	}
	names, err := s.branches.Names(ctx, ids)
	if err != nil {
		s.logger.Warn("branch enrichment failed", "error", err.Error())
	}
	if names == nil {
		names = map[uuid.UUID]string{}
	}
	return names
}

func joinNames(names []*string) *string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if n != nil && *n != "" {
			parts = append(parts, *n)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, ", ")
	return &joined
}
