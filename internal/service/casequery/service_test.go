package casequery

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
	"github.com/jwalitptl/caseops-api/internal/repository/memory"
	"github.com/jwalitptl/caseops-api/internal/service/assignment"
	"github.com/jwalitptl/caseops-api/internal/service/branch"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

type world struct {
	store    *memory.Store
	svc      *Service
	assign   *assignment.Service
	main     uuid.UUID
	other    uuid.UUID
	caseSeq  int
	baseTime time.Time
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := memory.NewStore()
	w := &world{
		store:    store,
		main:     uuid.New(),
		other:    uuid.New(),
		baseTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	store.PutBranch(model.Branch{ID: w.main, Name: "Main"})
	store.PutBranch(model.Branch{ID: w.other, Name: "Other"})

	w.svc = NewService(Repositories{
		Cases:       store.Cases(),
		Assignments: store.Assignments(),
		Profiles:    store.Profiles(),
		Staff:       store.Staff(),
	}, branch.NewService(store.Branches(), time.Minute), nil, nil)
	w.assign = assignment.NewService(store.Assignments(), nil, nil, nil)
	return w
}

func (w *world) addStaff(name, role string, branchID *uuid.UUID, perm string) *model.Principal {
	st := model.Staff{ID: uuid.New(), FullName: strPtr(name), Role: role, BranchID: branchID, Permission: perm}
	w.store.PutStaff(st)
	return model.NewPrincipal(&st)
}

func (w *world) addCase(branchID *uuid.UUID) *model.Case {
	w.caseSeq++
	c := model.Case{
		ID:         uuid.New(),
		CaseNumber: fmt.Sprintf("M-%03d", w.caseSeq),
		BranchID:   branchID,
		Status:     "active",
		CreatedAt:  w.baseTime.Add(time.Duration(w.caseSeq) * time.Hour),
	}
	w.store.PutCase(c)
	return &c
}

func (w *world) assignTo(t *testing.T, caseID uuid.UUID, staff ...uuid.UUID) {
	t.Helper()
	ids := make([]string, 0, len(staff))
	for _, s := range staff {
		ids = append(ids, s.String())
	}
	_, err := w.assign.ReplaceAssignees(context.Background(), uuid.Nil, caseID, ids)
	require.NoError(t, err)
}

func caseIDs(views []*model.CaseView) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestList_AdminSeesEverything(t *testing.T) {
	w := newWorld(t)
	admin := w.addStaff("Ada", "admin", nil, "view")
	c1 := w.addCase(&w.main)
	c2 := w.addCase(&w.other)
	c3 := w.addCase(nil)

	views, err := w.svc.List(context.Background(), admin, model.CaseFilters{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c3.ID, c2.ID, c1.ID}, caseIDs(views), "newest first")
}

func TestList_BranchManagerSeesBranchUnionAssignments(t *testing.T) {
	w := newWorld(t)
	manager := w.addStaff("Bo", "branch_manager", &w.main, "view")

	neither := w.addCase(&w.other)
	branchOnly := w.addCase(&w.main)
	assignedOnly := w.addCase(&w.other)
	both := w.addCase(&w.main)
	w.assignTo(t, assignedOnly.ID, manager.ID)
	w.assignTo(t, both.ID, manager.ID)

	views, err := w.svc.List(context.Background(), manager, model.CaseFilters{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{branchOnly.ID, assignedOnly.ID, both.ID}, caseIDs(views))
	assert.NotContains(t, caseIDs(views), neither.ID)
}

func TestList_FailsClosed(t *testing.T) {
	w := newWorld(t)
	w.addCase(&w.main)

	coordinator := w.addStaff("Cat", "coordinator", &w.main, "update")
	views, err := w.svc.List(context.Background(), coordinator, model.CaseFilters{})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	orphanManager := w.addStaff("Dee", "branch_manager", nil, "update")
	views, err = w.svc.List(context.Background(), orphanManager, model.CaseFilters{})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestList_MissingPrincipalIsUnauthorized(t *testing.T) {
	w := newWorld(t)
	_, err := w.svc.List(context.Background(), nil, model.CaseFilters{})
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestList_EndToEndReassignment(t *testing.T) {
	w := newWorld(t)
	staffA := w.addStaff("Ann", "case_manager", &w.main, "view")
	staffB := w.addStaff("Bea", "branch_manager", &w.other, "update")

	x := w.addCase(&w.main)
	w.assignTo(t, x.ID, staffA.ID)

	views, err := w.svc.List(context.Background(), staffB, model.CaseFilters{})
	require.NoError(t, err)
	assert.NotContains(t, caseIDs(views), x.ID)

	w.assignTo(t, x.ID, staffB.ID)

	views, err = w.svc.List(context.Background(), staffB, model.CaseFilters{})
	require.NoError(t, err)
	require.Contains(t, caseIDs(views), x.ID)

	// staffA lost the assignment and, not being a branch manager, lost the case.
	views, err = w.svc.List(context.Background(), staffA, model.CaseFilters{})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestList_Filters(t *testing.T) {
	w := newWorld(t)
	admin := w.addStaff("Ada", "admin", nil, "update")

	active := w.addCase(&w.main)
	paused := w.addCase(&w.other)
	w.store.PutCase(model.Case{ID: paused.ID, CaseNumber: "M-PAUSED", BranchID: &w.other, Status: "paused", ClinicName: strPtr("Sunrise Fertility"), CreatedAt: paused.CreatedAt})

	views, err := w.svc.List(context.Background(), admin, model.CaseFilters{Status: "paused"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{paused.ID}, caseIDs(views))

	views, err = w.svc.List(context.Background(), admin, model.CaseFilters{Search: "sunrise"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{paused.ID}, caseIDs(views))

	views, err = w.svc.List(context.Background(), admin, model.CaseFilters{BranchOverride: &w.main})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{active.ID}, caseIDs(views))
}

func TestList_BranchOverrideTakesPrecedence(t *testing.T) {
	w := newWorld(t)
	manager := w.addStaff("Bo", "branch_manager", &w.main, "update")
	own := w.addCase(&w.main)
	assignedOwn := w.addCase(&w.main)
	assignedOther := w.addCase(&w.other)
	unassignedOther := w.addCase(&w.other)
	w.assignTo(t, assignedOther.ID, manager.ID)
	w.assignTo(t, assignedOwn.ID, manager.ID)

	views, err := w.svc.List(context.Background(), manager, model.CaseFilters{BranchOverride: &w.other})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{assignedOther.ID, unassignedOther.ID}, caseIDs(views))

	views, err = w.svc.List(context.Background(), manager, model.CaseFilters{BranchOverride: &w.main})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{own.ID, assignedOwn.ID}, caseIDs(views))
}

func TestList_BranchOverrideKeepsUnassignedClosed(t *testing.T) {
	w := newWorld(t)
	coordinator := w.addStaff("Cy", "case_manager", nil, "view")
	w.addCase(&w.other)

	views, err := w.svc.List(context.Background(), coordinator, model.CaseFilters{BranchOverride: &w.other})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestList_Enrichment(t *testing.T) {
	w := newWorld(t)
	admin := w.addStaff("Ada", "admin", nil, "update")
	m1 := w.addStaff("Mia", "case_manager", nil, "view")
	m2 := w.addStaff("Noa", "case_manager", nil, "view")
	legacy := w.addStaff("Lee", "case_manager", nil, "view")

	surrogate := model.Profile{ID: uuid.New(), FullName: strPtr("Sara"), Kind: "surrogate"}
	w.store.PutProfile(surrogate)
	missingParent := uuid.New()

	assigned := w.addCase(&w.main)
	c := *assigned
	c.SurrogateID = &surrogate.ID
	c.IntendedParentID = &missingParent
	w.store.PutCase(c)
	w.assignTo(t, assigned.ID, m2.ID, m1.ID)

	legacyOnly := w.addCase(nil)
	lc := *legacyOnly
	lc.LegacyManagerID = &legacy.ID
	w.store.PutCase(lc)

	unassigned := w.addCase(&w.other)

	views, err := w.svc.List(context.Background(), admin, model.CaseFilters{})
	require.NoError(t, err)
	byID := map[uuid.UUID]*model.CaseView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	v := byID[assigned.ID]
	require.NotNil(t, v)
	assert.Equal(t, []uuid.UUID{m2.ID, m1.ID}, v.ManagerIDs)
	assert.Equal(t, "Noa, Mia", *v.ManagerName)
	assert.Equal(t, "Sara", *v.SurrogateName)
	assert.Nil(t, v.IntendedParentName, "missing profile yields a null name")
	assert.Equal(t, "Main", *v.BranchName)

	v = byID[legacyOnly.ID]
	require.NotNil(t, v)
	assert.Equal(t, []uuid.UUID{legacy.ID}, v.ManagerIDs)
	assert.Equal(t, "Lee", *v.ManagerName)
	assert.Nil(t, v.BranchName)

	v = byID[unassigned.ID]
	require.NotNil(t, v)
	assert.Empty(t, v.ManagerIDs)
	assert.Nil(t, v.ManagerName)
}

type brokenProfiles struct{}

func (brokenProfiles) ListByIDs(context.Context, []uuid.UUID) ([]*model.Profile, error) {
	return nil, stderrors.New("timeout")
}

func TestList_EnrichmentFailureDegrades(t *testing.T) {
	w := newWorld(t)
	admin := w.addStaff("Ada", "admin", nil, "update")
	p := uuid.New()
	c := w.addCase(&w.main)
	cc := *c
	cc.SurrogateID = &p
	w.store.PutCase(cc)

	w.svc.profiles = brokenProfiles{}
	views, err := w.svc.List(context.Background(), admin, model.CaseFilters{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].SurrogateName)
}

type brokenAssignments struct {
	repository.AssignmentReader
}

func (brokenAssignments) ListCaseIDsByStaff(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, stderrors.New("connection reset")
}

func TestList_ScopingFailureIsFatal(t *testing.T) {
	w := newWorld(t)
	manager := w.addStaff("Bo", "branch_manager", &w.main, "view")
	w.addCase(&w.main)

	w.svc.assignments = brokenAssignments{AssignmentReader: w.store.Assignments()}
	_, err := w.svc.List(context.Background(), manager, model.CaseFilters{})
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

func TestGet_InvisibleLooksMissing(t *testing.T) {
	w := newWorld(t)
	manager := w.addStaff("Bo", "branch_manager", &w.main, "view")
	visible := w.addCase(&w.main)
	hidden := w.addCase(&w.other)

	v, err := w.svc.Get(context.Background(), manager, visible.ID)
	require.NoError(t, err)
	assert.Equal(t, visible.ID, v.ID)

	_, err = w.svc.Get(context.Background(), manager, hidden.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = w.svc.Get(context.Background(), manager, uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdate_Gating(t *testing.T) {
	w := newWorld(t)
	viewer := w.addStaff("Vi", "branch_manager", &w.main, "view")
	editor := w.addStaff("Ed", "branch_manager", &w.main, "update")
	legacy := w.addStaff("Lee", "case_manager", nil, "view")
	c := w.addCase(&w.main)
	foreign := w.addCase(&w.other)
	w.assignTo(t, c.ID, legacy.ID)

	status := "transferred"
	patch := &model.CasePatch{Status: &status}

	_, err := w.svc.Update(context.Background(), viewer, c.ID, patch)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = w.svc.Update(context.Background(), editor, foreign.ID, patch)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	v, err := w.svc.Update(context.Background(), editor, c.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "transferred", v.Status)
	require.NotNil(t, v.LegacyManagerID)
	assert.Equal(t, legacy.ID, *v.LegacyManagerID, "updates never touch the legacy manager")
}

func TestDelete_Gating(t *testing.T) {
	w := newWorld(t)
	viewer := w.addStaff("Vi", "branch_manager", &w.main, "view")
	admin := w.addStaff("Ada", "admin", nil, "view")
	c := w.addCase(&w.main)

	err := w.svc.Delete(context.Background(), viewer, c.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	require.NoError(t, w.svc.Delete(context.Background(), admin, c.ID))

	_, err = w.svc.Get(context.Background(), admin, c.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAuthorize_ForbiddenBeforeStorage(t *testing.T) {
	w := newWorld(t)
	viewer := w.addStaff("Vi", "coordinator", nil, "update")
	w.svc.assignments = brokenAssignments{AssignmentReader: w.store.Assignments()}

	// Storage is broken, yet the mutation check answers first.
	_, err := w.svc.Authorize(context.Background(), viewer, uuid.New(), true)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}
