package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/caseops-api/internal/model"
	"github.com/jwalitptl/caseops-api/pkg/auth"
	"github.com/jwalitptl/caseops-api/pkg/errors"
	"github.com/jwalitptl/caseops-api/pkg/httputil"
)

const ContextPrincipal = "principal"

// PrincipalResolver turns a verified session subject into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject string) (*model.Principal, error)
}

type AuthMiddleware struct {
	verifier auth.SessionVerifier
	resolver PrincipalResolver
}

func NewAuthMiddleware(verifier auth.SessionVerifier, resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		resolver: resolver,
	}
}

// Authenticate verifies the bearer token and stores the resolved principal in
// the context. Nothing downstream runs without one.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("missing authorization header")))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("invalid authorization format")))
			return
		}

		subject, err := m.verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized(err))
			return
		}

		principal, err := m.resolver.Resolve(c.Request.Context(), subject)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// RequireManagementRole limits a route to admins and branch managers.
func (m *AuthMiddleware) RequireManagementRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized(fmt.Errorf("no principal")))
			return
		}
		switch p.Role {
		case model.RoleAdmin, model.RoleBranchManager:
			c.Next()
		case model.RoleOther:
			httputil.RespondWithError(c, errors.Forbidden("management role required"))
		default:
			httputil.RespondWithError(c, errors.Forbidden("management role required"))
		}
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (*model.Principal, bool) {
	v, exists := c.Get(ContextPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(*model.Principal)
	return p, ok && p != nil
}
