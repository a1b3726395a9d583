package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/caseops-api/internal/handler"
	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/service/permission"
	"github.com/jwalitptl/caseops-api/pkg/httputil"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.Me)
}

type meResponse struct {
	*model.Principal
	Capabilities model.Capabilities `json:"capabilities"`
}

// Me reports the caller's resolved principal and what it may do.
func (h *Handler) Me(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, meResponse{
		Principal:    p,
		Capabilities: permission.Evaluate(p),
	})
}
