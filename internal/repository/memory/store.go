// Package memory is an in-process implementation of the repository
// interfaces. It backs the "memory" database driver for local runs and the
// service tests; production uses the postgres package.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

// Store holds every table. All methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	staff       map[uuid.UUID]model.Staff
	profiles    map[uuid.UUID]model.Profile
	branches    map[uuid.UUID]model.Branch
	cases       map[uuid.UUID]model.Case
	assignments []model.Assignment
}

func NewStore() *Store {
	return &Store{
		staff:    make(map[uuid.UUID]model.Staff),
		profiles: make(map[uuid.UUID]model.Profile),
		branches: make(map[uuid.UUID]model.Branch),
		cases:    make(map[uuid.UUID]model.Case),
	}
}

// Seeding helpers. They overwrite rows with the same id.

func (s *Store) PutStaff(st model.Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[st.ID] = st
}

func (s *Store) PutProfile(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Store) PutBranch(b model.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

func (s *Store) PutCase(c model.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.cases[c.ID] = c
}

// PingContext satisfies repository.Pinger.
func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// Repository views over the shared store.

func (s *Store) Staff() repository.StaffRepository           { return staffRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository      { return profileRepo{s} }
func (s *Store) Branches() repository.BranchRepository       { return branchRepo{s} }
func (s *Store) Cases() repository.CaseRepository            { return caseRepo{s} }
func (s *Store) Assignments() repository.AssignmentRepository { return assignmentRepo{s} }

type staffRepo struct{ s *Store }

func (r staffRepo) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (r staffRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Staff, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Staff
	for _, id := range ids {
		if st, ok := r.s.staff[id]; ok {
			st := st
			out = append(out, &st)
		}
	}
	return out, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Profile
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

type branchRepo struct{ s *Store }

func (r branchRepo) List(ctx context.Context) ([]*model.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Branch, 0, len(r.s.branches))
	for _, b := range r.s.branches {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r branchRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Branch
	for _, id := range ids {
		if b, ok := r.s.branches[id]; ok {
			b := b
			out = append(out, &b)
		}
	}
	return out, nil
}

type caseRepo struct{ s *Store }

func (r caseRepo) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r caseRepo) List(ctx context.Context, pred model.VisibilityPredicate, filters model.CaseFilters) ([]*model.Case, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	status := strings.TrimSpace(filters.Status)
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	var out []*model.Case
	for _, c := range r.s.cases {
		c := c
		if !pred.Matches(&c) {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		if search != "" && !matchesSearch(&c, search) {
			continue
		}
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchesSearch(c *model.Case, needle string) bool {
	fields := []string{c.CaseNumber, c.Status}
	if c.ClinicName != nil {
		fields = append(fields, *c.ClinicName)
	}
	if c.Notes != nil {
		fields = append(fields, *c.Notes)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func (r caseRepo) Update(ctx context.Context, id uuid.UUID, patch *model.CasePatch) (*model.Case, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch != nil && !patch.Empty() {
		patch.Apply(&c)
		c.UpdatedAt = time.Now().UTC()
		r.s.cases[id] = c
	}
	return &c, nil
}

func (r caseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cases[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.cases, id)
	kept := r.s.assignments[:0]
	for _, a := range r.s.assignments {
		if a.CaseID != id {
			kept = append(kept, a)
		}
	}
	r.s.assignments = kept
	return nil
}
