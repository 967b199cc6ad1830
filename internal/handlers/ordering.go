package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

type reorderItemRequest struct {
	TaskID      uint64   `json:"task_id" binding:"required"`
	SortIndex   *float64 `json:"sort_index" binding:"required"`
	ContainerID *uint64  `json:"container_id"`
}

type reorderRequest struct {
	Items []reorderItemRequest `json:"items" binding:"required,dive"`
}

// items converts a bound request; binding has already rejected missing indices.
func (r reorderRequest) items() []services.ReorderItem {
	items := make([]services.ReorderItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = services.ReorderItem{
			TaskID:      item.TaskID,
			SortIndex:   *item.SortIndex,
			ContainerID: item.ContainerID,
		}
	}
	return items
}

// OrderingHandler moves tasks around the board.
type OrderingHandler struct {
	orderingService *services.OrderingService
}

// NewOrderingHandler creates a new OrderingHandler.
func NewOrderingHandler(orderingService *services.OrderingService) *OrderingHandler {
	return &OrderingHandler{
		orderingService: orderingService,
	}
}

// MoveTask places a task in a container, either at a sort index or between
// two neighbouring tasks.
func (h *OrderingHandler) MoveTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	type MoveTaskRequest struct {
		ContainerID  uint64   `json:"container_id" binding:"required"`
		SortIndex    *float64 `json:"sort_index"`
		AfterTaskID  *uint64  `json:"after_task_id"`
		BeforeTaskID *uint64  `json:"before_task_id"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.orderingService.Move(c.Request.Context(), services.MoveTaskInput{
		TaskID:       middleware.GetIDParam(c),
		ContainerID:  req.ContainerID,
		SortIndex:    req.SortIndex,
		AfterTaskID:  req.AfterTaskID,
		BeforeTaskID: req.BeforeTaskID,
	}, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// BulkReorder validates every item, then applies each placement
// independently. The response counts the writes that took effect.
func (h *OrderingHandler) BulkReorder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.orderingService.BulkReorder(c.Request.Context(), req.items(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBulkResultResponse(*result))
}
