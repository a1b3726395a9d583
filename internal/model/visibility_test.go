package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestVisibilityPredicate_ZeroValueFailsClosed(t *testing.T) {
	var p VisibilityPredicate
	assert.True(t, p.MatchesNothing())
	assert.False(t, p.Matches(&Case{ID: uuid.New()}))
}

func TestScoped_EmptyGrantMatchesNothing(t *testing.T) {
	p := Scoped(nil, nil)
	assert.Equal(t, PredicateNone, p.Kind)
}

func TestVisibilityPredicate_Matches(t *testing.T) {
	branchA, branchB := uuid.New(), uuid.New()
	assigned := uuid.New()

	inBranch := &Case{ID: uuid.New(), BranchID: &branchA}
	assignedElsewhere := &Case{ID: assigned, BranchID: &branchB}
	noBranch := &Case{ID: uuid.New()}

	p := Scoped(&branchA, []uuid.UUID{assigned})
	assert.True(t, p.Matches(inBranch))
	assert.True(t, p.Matches(assignedElsewhere))
	assert.False(t, p.Matches(noBranch))
	assert.False(t, p.Matches(nil))

	branchOnly := Scoped(&branchB, nil)
	assert.False(t, branchOnly.Matches(inBranch))
	assert.True(t, branchOnly.Matches(assignedElsewhere))
	assert.False(t, branchOnly.Matches(noBranch))

	u := Unrestricted()
	assert.True(t, u.Matches(noBranch))
	assert.True(t, u.Matches(assignedElsewhere))
}

func TestScoped_CopiesInputs(t *testing.T) {
	branch := uuid.New()
	ids := []uuid.UUID{uuid.New()}
	p := Scoped(&branch, ids)

	branch = uuid.New()
	ids[0] = uuid.New()
	assert.NotEqual(t, branch, *p.BranchID)
	assert.NotEqual(t, ids[0], p.CaseIDs[0])
}

func TestParseRole_FallsBackToOther(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleBranchManager, ParseRole("branch_manager"))
	for _, s := range []string{"", "case_manager", "superuser", "ADMINISTRATOR"} {
		assert.Equal(t, RoleOther, ParseRole(s), s)
	}
}

func TestParseMutationPermission(t *testing.T) {
	assert.Equal(t, PermissionUpdate, ParseMutationPermission("update"))
	assert.Equal(t, PermissionView, ParseMutationPermission("view"))
	assert.Equal(t, PermissionView, ParseMutationPermission("write"))
	assert.Equal(t, PermissionView, ParseMutationPermission(""))
}
