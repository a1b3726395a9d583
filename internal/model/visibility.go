package model

import (
	"github.com/google/uuid"
)

// PredicateKind classifies a VisibilityPredicate.
type PredicateKind int

const (
	// PredicateNone matches nothing. It is the zero value so an
	// uninitialised predicate fails closed.
	PredicateNone PredicateKind = iota
	PredicateUnrestricted
	PredicateScoped
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateUnrestricted:
		return "unrestricted"
	case PredicateScoped:
		return "scoped"
	default:
		return "none"
	}
}

// VisibilityPredicate is the per-request set of cases a principal may see.
//
// A scoped predicate grants cases in BranchID OR in CaseIDs.
type VisibilityPredicate struct {
	Kind     PredicateKind
	BranchID *uuid.UUID
	CaseIDs  []uuid.UUID
}

func Unrestricted() VisibilityPredicate {
	return VisibilityPredicate{Kind: PredicateUnrestricted}
}

func MatchNothing() VisibilityPredicate {
	return VisibilityPredicate{Kind: PredicateNone}
}

// Scoped builds a branch/assignment grant. With neither set it matches nothing.
func Scoped(branchID *uuid.UUID, caseIDs []uuid.UUID) VisibilityPredicate {
	if branchID == nil && len(caseIDs) == 0 {
		return MatchNothing()
	}
	p := VisibilityPredicate{Kind: PredicateScoped}
	if branchID != nil {
		b := *branchID
		p.BranchID = &b
	}
	if len(caseIDs) > 0 {
		p.CaseIDs = append([]uuid.UUID(nil), caseIDs...)
	}
	return p
}

// MatchesNothing reports whether the predicate can be answered without a query.
func (p VisibilityPredicate) MatchesNothing() bool {
	return p.Kind == PredicateNone
}

// Matches evaluates the predicate against a single case in memory.
func (p VisibilityPredicate) Matches(c *Case) bool {
	if c == nil {
		return false
	}

	switch p.Kind {
	case PredicateUnrestricted:
		return true
	case PredicateScoped:
		if p.BranchID != nil && c.BranchID != nil && *c.BranchID == *p.BranchID {
			return true
		}
		for _, id := range p.CaseIDs {
			if id == c.ID {
				return true
			}
		}
		return false
	case PredicateNone:
		return false
	}
	return false
}
