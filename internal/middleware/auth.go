package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
)

// RequireAuth resolves the session user and stores it in the context as a
// uint64. A session holding anything else is cleared and rejected.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(constants.ContextKeyUserID)
		if raw == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		userID, ok := toUserID(raw)
		if !ok {
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Session is no longer valid")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID returns the user resolved by RequireAuth
func GetUserID(c *gin.Context) (uint64, bool) {
	raw, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(raw)
}

// toUserID accepts the integer types a session codec may hand back.
func toUserID(raw any) (uint64, bool) {
	switch v := raw.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int64:
		return uint64(v), v > 0
	case int:
		return uint64(v), v > 0
	default:
		return 0, false
	}
}
