// Package visibility turns a principal into the predicate that bounds every
// case read it makes.
package visibility

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/service/permission"
)

// Scope computes the predicate for p. assigned is the set of case ids p is
// explicitly assigned to. A nil principal matches nothing.
func Scope(p *model.Principal, assigned []uuid.UUID) model.VisibilityPredicate {
	if p == nil {
		return model.MatchNothing()
	}

	if permission.Evaluate(p).CanViewAll {
		return model.Unrestricted()
	}

	if p.Role == model.RoleBranchManager && p.BranchID != nil {
		return model.Scoped(p.BranchID, assigned)
	}

	if len(assigned) > 0 {
		return model.Scoped(nil, assigned)
	}

	return model.MatchNothing()
}

// ApplyBranchOverride replaces pred with a grant on exactly one branch when
// the caller asks for one explicitly. The assignment union is dropped. A
// predicate that matches nothing stays closed.
func ApplyBranchOverride(pred model.VisibilityPredicate, branchID *uuid.UUID) model.VisibilityPredicate {
	if branchID == nil || pred.MatchesNothing() {
		return pred
	}
	return model.Scoped(branchID, nil)
}
