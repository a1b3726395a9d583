package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if sub, ok := s[token]; ok {
		return sub, nil
	}
	return "", stderrors.New("bad token")
}

type stubResolver map[string]*model.Principal

func (s stubResolver) Resolve(_ context.Context, subject string) (*model.Principal, error) {
	if subject == "broken" {
		return nil, errors.Internal(stderrors.New("db down"))
	}
	if p, ok := s[subject]; ok {
		return p, nil
	}
	return nil, errors.Unauthorized(stderrors.New("unknown"))
}

func newAuthRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Authenticate())
	r.GET("/me", func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.String(http.StatusOK, p.ID.String())
	})
	r.GET("/branches", m.RequireManagementRole(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	admin := &model.Principal{ID: uuid.New(), Role: model.RoleAdmin}
	m := NewAuthMiddleware(
		stubVerifier{"good": "admin", "ghost": "ghost", "broken": "broken"},
		stubResolver{"admin": admin},
	)
	r := newAuthRouter(m)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"unknown staff", "Bearer ghost", http.StatusUnauthorized},
		{"resolver failure", "Bearer broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, admin.ID.String(), w.Body.String())
			}
		})
	}
}

func TestRequireManagementRole(t *testing.T) {
	branch := uuid.New()
	m := NewAuthMiddleware(
		stubVerifier{"admin": "admin", "manager": "manager", "coordinator": "coordinator"},
		stubResolver{
			"admin":       {ID: uuid.New(), Role: model.RoleAdmin},
			"manager":     {ID: uuid.New(), Role: model.RoleBranchManager, BranchID: &branch},
			"coordinator": {ID: uuid.New(), Role: model.RoleOther},
		},
	)
	r := newAuthRouter(m)

	for token, want := range map[string]int{
		"admin":       http.StatusOK,
		"manager":     http.StatusOK,
		"coordinator": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/branches", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}
}
