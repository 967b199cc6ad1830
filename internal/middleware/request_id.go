package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/kanban-board-api/internal/constants"
)

// RequestID tags every request with an id, reusing one sent by the client.
// Errors attached to the context by handlers are logged with that id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, id)
		c.Header(constants.HeaderRequestID, id)

		c.Next()

		for _, e := range c.Errors {
			log.Printf("[request %s] %s %s: %v", id, c.Request.Method, c.FullPath(), e.Err)
		}
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyRequestID)
}
