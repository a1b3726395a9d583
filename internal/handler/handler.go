// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/caseops-api/internal/middleware"
	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/pkg/errors"
)

// Principal returns the authenticated principal or an unauthorized error.
func Principal(c *gin.Context) (*model.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, errors.Unauthorized(fmt.Errorf("no principal in context"))
	}
	return p, nil
}

// ParseIDParam parses a path parameter as a uuid. A malformed id is reported
// as not found, matching how invisible cases are reported.
func ParseIDParam(c *gin.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.NotFound(resource, err)
	}
	return id, nil
}
