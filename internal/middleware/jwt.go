package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ai-show/backend/internal/auth"
	"github.com/ai-show/backend/pkg/response"
)

const (
	// ContextEventID is the key for the token's event scope in gin context.
	ContextEventID = "event_id"
	// ContextRole is the key for the token's role in gin context.
	ContextRole = "role"
)

// JWT returns a middleware that validates the admin JWT and sets claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextEventID, claims.EventID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
