package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
)

type assignmentRepo struct{ s *Store }

func (r assignmentRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.StaffRef, error) {
	return r.ListByCases(ctx, []uuid.UUID{caseID})
}

func (r assignmentRepo) ListByCases(ctx context.Context, caseIDs []uuid.UUID) ([]*model.StaffRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[uuid.UUID]struct{}, len(caseIDs))
	for _, id := range caseIDs {
		wanted[id] = struct{}{}
	}

	var out []*model.StaffRef
	for _, a := range r.s.assignments {
		if _, ok := wanted[a.CaseID]; !ok {
			continue
		}
		ref := &model.StaffRef{ID: a.StaffID, CaseID: a.CaseID, AssignedAt: a.CreatedAt}
		if st, ok := r.s.staff[a.StaffID]; ok {
			ref.FullName = st.FullName
			ref.Email = st.Email
		}
		out = append(out, ref)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CaseID != out[j].CaseID {
			return out[i].CaseID.String() < out[j].CaseID.String()
		}
		if !out[i].AssignedAt.Equal(out[j].AssignedAt) {
			return out[i].AssignedAt.Before(out[j].AssignedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r assignmentRepo) ListCaseIDsByStaff(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []uuid.UUID
	for _, a := range r.s.assignments {
		if a.StaffID == staffID {
			out = append(out, a.CaseID)
		}
	}
	return out, nil
}

// InTx holds the store's write lock for the whole transaction, so readers see
// either the state before or after it. A failing fn restores the snapshot.
func (r assignmentRepo) InTx(ctx context.Context, fn func(tx repository.AssignmentTx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshotAssignments := append([]model.Assignment(nil), r.s.assignments...)
	snapshotCases := make(map[uuid.UUID]model.Case, len(r.s.cases))
	for id, c := range r.s.cases {
		snapshotCases[id] = c
	}

	if err := fn(&memoryTx{s: r.s}); err != nil {
		r.s.assignments = snapshotAssignments
		r.s.cases = snapshotCases
		return err
	}
	return nil
}

// memoryTx runs with Store.mu already held for writing.
type memoryTx struct {
	s *Store
}

func (t *memoryTx) LockCase(ctx context.Context, caseID uuid.UUID) error {
	if _, ok := t.s.cases[caseID]; !ok {
		return repository.ErrNotFound
	}
	return ctx.Err()
}

func (t *memoryTx) DeleteByCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	var deleted int64
	kept := make([]model.Assignment, 0, len(t.s.assignments))
	for _, a := range t.s.assignments {
		if a.CaseID == caseID {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	t.s.assignments = kept
	return deleted, ctx.Err()
}

func (t *memoryTx) Insert(ctx context.Context, a *model.Assignment) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, ok := t.s.staff[a.StaffID]; !ok {
		return false, nil
	}
	for _, existing := range t.s.assignments {
		if existing.CaseID == a.CaseID && existing.StaffID == a.StaffID {
			return false, nil
		}
	}
	t.s.assignments = append(t.s.assignments, *a)
	return true, nil
}

func (t *memoryTx) SetLegacyManager(ctx context.Context, caseID uuid.UUID, staffID *uuid.UUID) error {
	c, ok := t.s.cases[caseID]
	if !ok {
		return repository.ErrNotFound
	}
	if staffID != nil {
		id := *staffID
		c.LegacyManagerID = &id
	} else {
		c.LegacyManagerID = nil
	}
	t.s.cases[caseID] = c
	return ctx.Err()
}
