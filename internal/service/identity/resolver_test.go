package identity

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/repository/memory"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

type failingStaff struct{}

func (failingStaff) Get(context.Context, uuid.UUID) (*model.Staff, error) {
	return nil, stderrors.New("connection refused")
}

func (failingStaff) ListByIDs(context.Context, []uuid.UUID) ([]*model.Staff, error) {
	return nil, stderrors.New("connection refused")
}

func TestResolver_Resolve(t *testing.T) {
	store := memory.NewStore()
	branch := uuid.New()
	id := uuid.New()
	store.PutStaff(model.Staff{ID: id, Role: "branch_manager", BranchID: &branch, Permission: "update"})

	r := NewResolver(store.Staff())

	p, err := r.Resolve(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, model.RoleBranchManager, p.Role)
	assert.Equal(t, branch, *p.BranchID)
	assert.Equal(t, model.PermissionUpdate, p.MutationPermission)
}

func TestResolver_ReflectsRoleChangesImmediately(t *testing.T) {
	store := memory.NewStore()
	id := uuid.New()
	store.PutStaff(model.Staff{ID: id, Role: "admin"})
	r := NewResolver(store.Staff())

	p, err := r.Resolve(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)

	store.PutStaff(model.Staff{ID: id, Role: "coordinator"})
	p, err = r.Resolve(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, model.RoleOther, p.Role)
}

func TestResolver_Failures(t *testing.T) {
	r := NewResolver(memory.NewStore().Staff())

	tests := []struct {
		name    string
		subject string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"malformed", "not-a-uuid"},
		{"unknown", uuid.NewString()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.subject)
			assert.True(t, errors.Is(err, errors.ErrUnauthorized))
		})
	}

	t.Run("storage failure is internal", func(t *testing.T) {
		_, err := NewResolver(failingStaff{}).Resolve(context.Background(), uuid.NewString())
		assert.True(t, errors.Is(err, errors.ErrInternal))
	})
}
