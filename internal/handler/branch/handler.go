package branch

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/pkg/httputil"
)

type BranchLister interface {
	List(ctx context.Context) ([]*model.Branch, error)
}

type Handler struct {
	service BranchLister
}

func NewHandler(service BranchLister) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the branch routes behind guard, which limits them to
// management roles.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard gin.HandlerFunc) {
	r.GET("/branches", guard, h.ListBranches)
}

func (h *Handler) ListBranches(c *gin.Context) {
	branches, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, branches)
}
