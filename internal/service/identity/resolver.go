// Package identity resolves an authenticated subject into a Principal.
package identity

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

// Resolver loads the principal fresh on every call. Principals are never
// cached, so a role change takes effect on the next request.
type Resolver struct {
	staff repository.StaffRepository
}

func NewResolver(staff repository.StaffRepository) *Resolver {
	return &Resolver{staff: staff}
}

// Resolve maps a session subject to a principal. An empty, malformed or
// unknown subject is unauthorized; storage failures are internal.
func (r *Resolver) Resolve(ctx context.Context, subject string) (*model.Principal, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.Unauthorized(fmt.Errorf("missing session subject"))
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, errors.Unauthorized(fmt.Errorf("malformed session subject: %w", err))
	}

	st, err := r.staff.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(fmt.Errorf("unknown staff member %s", id))
		}
		return nil, errors.Internal(fmt.Errorf("failed to load staff member: %w", err))
	}

	return model.NewPrincipal(st), nil
}
