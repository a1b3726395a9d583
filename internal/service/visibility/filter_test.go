package visibility

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/caseops-api/internal/model"
)

func TestScope(t *testing.T) {
	branch := uuid.New()
	assigned := []uuid.UUID{uuid.New()}

	t.Run("admin is unrestricted", func(t *testing.T) {
		pred := Scope(&model.Principal{Role: model.RoleAdmin, BranchID: &branch}, assigned)
		assert.Equal(t, model.PredicateUnrestricted, pred.Kind)
	})

	t.Run("branch manager sees branch and assignments", func(t *testing.T) {
		pred := Scope(&model.Principal{Role: model.RoleBranchManager, BranchID: &branch}, assigned)
		require.Equal(t, model.PredicateScoped, pred.Kind)
		assert.Equal(t, branch, *pred.BranchID)
		assert.Equal(t, assigned, pred.CaseIDs)
	})

	t.Run("branch manager without branch falls back to assignments", func(t *testing.T) {
		pred := Scope(&model.Principal{Role: model.RoleBranchManager}, assigned)
		require.Equal(t, model.PredicateScoped, pred.Kind)
		assert.Nil(t, pred.BranchID)
		assert.Equal(t, assigned, pred.CaseIDs)
	})

	t.Run("other role ignores its branch", func(t *testing.T) {
		pred := Scope(&model.Principal{Role: model.RoleOther, BranchID: &branch}, assigned)
		require.Equal(t, model.PredicateScoped, pred.Kind)
		assert.Nil(t, pred.BranchID)
	})

	t.Run("no grants matches nothing", func(t *testing.T) {
		assert.True(t, Scope(&model.Principal{Role: model.RoleOther}, nil).MatchesNothing())
		assert.True(t, Scope(&model.Principal{Role: model.RoleBranchManager}, nil).MatchesNothing())
	})

	t.Run("nil principal matches nothing", func(t *testing.T) {
		assert.True(t, Scope(nil, assigned).MatchesNothing())
	})
}

func TestScope_Matches(t *testing.T) {
	branch, otherBranch := uuid.New(), uuid.New()
	inBranch := &model.Case{ID: uuid.New(), BranchID: &branch}
	elsewhere := &model.Case{ID: uuid.New(), BranchID: &otherBranch}
	assignedElsewhere := &model.Case{ID: uuid.New(), BranchID: &otherBranch}

	manager := &model.Principal{Role: model.RoleBranchManager, BranchID: &branch}
	pred := Scope(manager, []uuid.UUID{assignedElsewhere.ID})

	assert.True(t, pred.Matches(inBranch))
	assert.True(t, pred.Matches(assignedElsewhere))
	assert.False(t, pred.Matches(elsewhere))

	coordinator := &model.Principal{Role: model.RoleOther, BranchID: &branch}
	pred = Scope(coordinator, []uuid.UUID{assignedElsewhere.ID})
	assert.False(t, pred.Matches(inBranch))
	assert.True(t, pred.Matches(assignedElsewhere))
}

func TestApplyBranchOverride(t *testing.T) {
	branch, otherBranch := uuid.New(), uuid.New()
	inBranch := &model.Case{ID: uuid.New(), BranchID: &branch}
	elsewhere := &model.Case{ID: uuid.New(), BranchID: &otherBranch}

	t.Run("admin sees only the requested branch", func(t *testing.T) {
		pred := ApplyBranchOverride(model.Unrestricted(), &otherBranch)
		assert.False(t, pred.Matches(inBranch))
		assert.True(t, pred.Matches(elsewhere))
	})

	t.Run("requested branch replaces the manager's own branch", func(t *testing.T) {
		pred := ApplyBranchOverride(model.Scoped(&branch, nil), &otherBranch)
		require.Equal(t, model.PredicateScoped, pred.Kind)
		assert.Equal(t, otherBranch, *pred.BranchID)
		assert.False(t, pred.Matches(inBranch))
		assert.True(t, pred.Matches(elsewhere))
	})

	t.Run("assignment union is dropped", func(t *testing.T) {
		assignedInBranch := &model.Case{ID: uuid.New(), BranchID: &branch}
		pred := ApplyBranchOverride(model.Scoped(nil, []uuid.UUID{assignedInBranch.ID}), &otherBranch)
		assert.Empty(t, pred.CaseIDs)
		assert.False(t, pred.Matches(assignedInBranch))
		assert.True(t, pred.Matches(elsewhere))
	})

	t.Run("none stays none", func(t *testing.T) {
		pred := ApplyBranchOverride(model.MatchNothing(), &branch)
		assert.True(t, pred.MatchesNothing())
		assert.False(t, pred.Matches(inBranch))
	})

	t.Run("nil override is a no-op", func(t *testing.T) {
		pred := model.Scoped(&branch, []uuid.UUID{uuid.New()})
		assert.Equal(t, pred, ApplyBranchOverride(pred, nil))
	})

	t.Run("override does not alias the caller's id", func(t *testing.T) {
		id := otherBranch
		pred := ApplyBranchOverride(model.Unrestricted(), &id)
		id = branch
		assert.Equal(t, otherBranch, *pred.BranchID)
	})
}
