// Package permission classifies a principal into its case capabilities.
package permission

import (
	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

// Evaluate is total and does no I/O.
func Evaluate(p *model.Principal) model.Capabilities {
	if p == nil {
		return model.Capabilities{}
	}

	switch p.Role {
	case model.RoleAdmin:
		return model.Capabilities{CanViewAll: true, CanMutate: true}
	case model.RoleBranchManager:
		return model.Capabilities{CanMutate: p.MutationPermission == model.PermissionUpdate}
	case model.RoleOther:
		return model.Capabilities{}
	default:
		return model.Capabilities{}
	}
}

// RequireMutate returns a forbidden error when p may not change cases.
func RequireMutate(p *model.Principal) error {
	if !Evaluate(p).CanMutate {
		return errors.Forbidden("insufficient permission to modify cases")
	}
	return nil
}
