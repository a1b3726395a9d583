package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/caseops-api/internal/middleware"
	"github.com/jwalitptl/caseops-api/internal/model"
)

type meBody struct {
	Status string `json:"status"`
	Data   struct {
		ID                 string  `json:"id"`
		Role               string  `json:"role"`
		BranchID           *string `json:"branch_id"`
		MutationPermission string  `json:"mutation_permission"`
		Capabilities       struct {
			CanViewAll bool `json:"can_view_all"`
			CanMutate  bool `json:"can_mutate"`
		} `json:"capabilities"`
	} `json:"data"`
}

func setupRouter(principals map[string]*model.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	// Stands in for the auth middleware: X-Test-As picks the principal.
	api.Use(func(c *gin.Context) {
		if p, ok := principals[c.GetHeader("X-Test-As")]; ok {
			c.Set(middleware.ContextPrincipal, p)
		}
		c.Next()
	})
	NewHandler().RegisterRoutes(api)
	return r
}

func getMe(t *testing.T, r *gin.Engine, as string) (*httptest.ResponseRecorder, meBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if as != "" {
		req.Header.Set("X-Test-As", as)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body meBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestMe_Capabilities(t *testing.T) {
	branch := uuid.New()
	principals := map[string]*model.Principal{
		"admin":   {ID: uuid.New(), Role: model.RoleAdmin, MutationPermission: model.PermissionView},
		"editor":  {ID: uuid.New(), Role: model.RoleBranchManager, BranchID: &branch, MutationPermission: model.PermissionUpdate},
		"viewer":  {ID: uuid.New(), Role: model.RoleBranchManager, BranchID: &branch, MutationPermission: model.PermissionView},
		"coordin": {ID: uuid.New(), Role: model.RoleOther, MutationPermission: model.PermissionUpdate},
	}
	r := setupRouter(principals)

	tests := []struct {
		as         string
		role       string
		canViewAll bool
		canMutate  bool
	}{
		{"admin", "admin", true, true},
		{"editor", "branch_manager", false, true},
		{"viewer", "branch_manager", false, false},
		{"coordin", "other", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.as, func(t *testing.T) {
			w, body := getMe(t, r, tt.as)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", body.Status)
			assert.Equal(t, principals[tt.as].ID.String(), body.Data.ID)
			assert.Equal(t, tt.role, body.Data.Role)
			assert.Equal(t, tt.canViewAll, body.Data.Capabilities.CanViewAll)
			assert.Equal(t, tt.canMutate, body.Data.Capabilities.CanMutate)
		})
	}

	_, body := getMe(t, r, "editor")
	require.NotNil(t, body.Data.BranchID)
	assert.Equal(t, branch.String(), *body.Data.BranchID)
}

func TestMe_WithoutPrincipal(t *testing.T) {
	r := setupRouter(nil)
	w, body := getMe(t, r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", body.Status)
}
