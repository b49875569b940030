package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tattoostudio/internal/pkg/jwt"
	"tattoostudio/internal/pkg/response"
)

const (
	ctxUserID   = "user_id"
	ctxStudioID = "studio_id"
	ctxRole     = "role"
)

// JWTAuth validates the bearer token and stores user, studio and role in the
// gin context. Websocket clients may pass the token as ?token= instead.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			raw = bearerToken(c)
			if raw == "" {
				response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
				c.Abort()
				return
			}
		}
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxStudioID, claims.StudioID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func UserID(c *gin.Context) int64   { return c.GetInt64(ctxUserID) }
func StudioID(c *gin.Context) int64 { return c.GetInt64(ctxStudioID) }
func Role(c *gin.Context) string    { return c.GetString(ctxRole) }
