package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tattoostudio/internal/pkg/jwt"
	"tattoostudio/internal/pkg/response"
)

// RequireRole lets the request through when the token role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if _, ok := allowed[role.(string)]; !ok {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// OwnerOnly guards commission and payroll endpoints.
func OwnerOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleOwner)
}

// StaffAny admits every studio role.
func StaffAny() gin.HandlerFunc {
	return RequireRole(jwt.RoleOwner, jwt.RoleArtist, jwt.RoleStaff)
}
