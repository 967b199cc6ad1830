package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
)

// requireUser returns the authenticated user, writing a 401 when there is none.
func requireUser(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// optionalUint64Query parses an optional numeric query parameter.
func optionalUint64Query(c *gin.Context, key string) (*uint64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+key)
		return nil, false
	}
	return &v, true
}
