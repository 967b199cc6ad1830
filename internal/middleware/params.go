package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
)

// RequireIDParam parses the :id path parameter and stores it in the context.
// Access to the entity itself is decided by the services.
func RequireIDParam(entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+entity+" ID")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyResourceID, id)
		c.Next()
	}
}

// GetIDParam retrieves the ID parsed by RequireIDParam
func GetIDParam(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeyResourceID)
}
