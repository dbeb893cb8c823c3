// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	appctx "fiskalis/internal/core/context"
)

// RequirePermission guards a route with a permission code such as
// "ledger:post" or "catalog:account:read". Grants may end in ":*",
// which covers every action under that prefix ("ledger:*" allows
// "ledger:post"). Admins pass unconditionally.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if user.IsAdmin || grantsAllow(grantedPermissions(c), permission) {
			c.Next()
			return
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permission", permission),
		)
		c.Abort()
	}
}

func grantsAllow(grants []string, required string) bool {
	for _, grant := range grants {
		if grant == required {
			return true
		}
		if prefix, ok := strings.CutSuffix(grant, ":*"); ok {
			if strings.HasPrefix(required, prefix+":") {
				return true
			}
		}
	}
	return false
}

// grantedPermissions reads the permission codes the Auth middleware
// copied out of the token claims.
func grantedPermissions(c *gin.Context) []string {
	if perms, exists := c.Get("permissions"); exists {
		if p, ok := perms.([]string); ok {
			return p
		}
	}
	return nil
}
