package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// TimeTrackingHandler serves time tracking sessions and the dashboard.
type TimeTrackingHandler struct {
	timeService *services.TimeTrackingService
}

// NewTimeTrackingHandler creates a new TimeTrackingHandler.
func NewTimeTrackingHandler(timeService *services.TimeTrackingService) *TimeTrackingHandler {
	return &TimeTrackingHandler{
		timeService: timeService,
	}
}

// StartTracking opens a session on the task for the current user.
func (h *TimeTrackingHandler) StartTracking(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.timeService.Start(c.Request.Context(), middleware.GetIDParam(c), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSessionViewDTO(*view))
}

// StopTracking closes the current user's session on the task.
func (h *TimeTrackingHandler) StopTracking(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.timeService.Stop(c.Request.Context(), middleware.GetIDParam(c), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionViewDTO(*view))
}

// GetStatus reports the current user's tracking state on the task.
func (h *TimeTrackingHandler) GetStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	status, err := h.timeService.Status(c.Request.Context(), middleware.GetIDParam(c), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTrackingStatusDTO(*status))
}

// GetHistory lists the current user's sessions on the task.
func (h *TimeTrackingHandler) GetHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	history, err := h.timeService.History(c.Request.Context(), middleware.GetIDParam(c), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": dto.ToSessionViewDTOs(history),
	})
}

// ListActive returns the current user's running session, if any.
func (h *TimeTrackingHandler) ListActive(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	active, err := h.timeService.ListActive(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": dto.ToActiveSessionDTOs(active),
	})
}

// GetDashboard summarizes the current user's visible tasks.
func (h *TimeTrackingHandler) GetDashboard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	dashboard, err := h.timeService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardResponse(*dashboard))
}
