package middleware

import (
	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/security"
)

// Scope builds the request's AccessScope from the authenticated user and
// stores it in the request context. Company-scoped handlers and the audit
// recorder read it from there.
//
// This middleware must run AFTER Auth, which populates the user context.
func Scope() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := security.NewAccessScope(c.Request.Context())
		if scope.UserID != "" {
			ctx := security.WithScope(c.Request.Context(), scope)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
