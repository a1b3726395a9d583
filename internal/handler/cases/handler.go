package cases

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/handler"
	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/internal/service/assignment"
	"github.com/jwalitptl/caseops-api/internal/service/casequery"
	"github.com/jwalitptl/caseops-api/pkg/errors"
	"github.com/jwalitptl/caseops-api/pkg/httputil"
	"github.com/jwalitptl/caseops-api/pkg/validator"
)

type Handler struct {
	cases       casequery.CaseQueryServicer
	assignments assignment.AssignmentServicer
	validator   validator.Validator
}

func NewHandler(cases casequery.CaseQueryServicer, assignments assignment.AssignmentServicer, v validator.Validator) *Handler {
	if v == nil {
		v = validator.New()
	}
	return &Handler{cases: cases, assignments: assignments, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cases := r.Group("/cases")
	{
		cases.GET("", h.ListCases)
		cases.GET("/:id", h.GetCase)
		cases.PATCH("/:id", h.UpdateCase)
		cases.DELETE("/:id", h.DeleteCase)
		cases.GET("/:id/managers", h.ListManagers)
		cases.POST("/:id/managers", h.ReplaceManagers)
	}
}

type listCasesQuery struct {
	Search   string `form:"search" validate:"max=200"`
	Status   string `form:"status" validate:"max=64"`
	BranchID string `form:"branch_id"`
}

// replaceManagersRequest uses a pointer so a missing field is told apart
// from an explicit empty list.
type replaceManagersRequest struct {
	ManagerIDs *[]string `json:"manager_ids"`
}

func (h *Handler) ListCases(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var q listCasesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid query", err))
		return
	}
	if err := h.validator.Validate(&q); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid query", err))
		return
	}

	filters := model.CaseFilters{Search: q.Search, Status: q.Status}
	if b := strings.TrimSpace(q.BranchID); b != "" {
		id, err := uuid.Parse(b)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid branch_id", err))
			return
		}
		filters.BranchOverride = &id
	}

	views, err := h.cases.List(c.Request.Context(), p, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, views)
}

func (h *Handler) GetCase(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseIDParam(c, "id", "case")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	view, err := h.cases.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, view)
}

func (h *Handler) UpdateCase(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseIDParam(c, "id", "case")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var patch model.CasePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&patch); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	view, err := h.cases.Update(c.Request.Context(), p, id, &patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, view)
}

func (h *Handler) DeleteCase(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseIDParam(c, "id", "case")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.cases.Delete(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListManagers(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseIDParam(c, "id", "case")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if _, err := h.cases.Authorize(c.Request.Context(), p, id, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	refs, err := h.assignments.ListAssignees(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, refs)
}

func (h *Handler) ReplaceManagers(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseIDParam(c, "id", "case")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// A non-array manager_ids fails to decode here.
	var req replaceManagersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("manager_ids must be an array of ids", err))
		return
	}
	if req.ManagerIDs == nil {
		httputil.RespondWithError(c, errors.BadRequest("manager_ids is required", fmt.Errorf("missing field")))
		return
	}

	if _, err := h.cases.Authorize(c.Request.Context(), p, id, true); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	refs, err := h.assignments.ReplaceAssignees(c.Request.Context(), p.ID, id, *req.ManagerIDs)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrPartialAssignment {
			httputil.RespondWithPartial(c, refs, appErr)
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, refs)
}
