package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ai-show/backend/pkg/response"
)

// RequireEventScope returns a middleware that rejects requests whose admin
// token is scoped to a different event than the :id path parameter.
func RequireEventScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		pathID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid event id")
			c.Abort()
			return
		}
		scopeVal, ok := c.Get(ContextEventID)
		if !ok {
			response.Unauthorized(c, "missing token context")
			c.Abort()
			return
		}
		scope, _ := scopeVal.(uuid.UUID)
		if scope != pathID {
			response.Forbidden(c, "token not valid for this event")
			c.Abort()
			return
		}
		c.Next()
	}
}
