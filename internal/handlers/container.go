package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// ContainerHandler serves board sections.
type ContainerHandler struct {
	containerService *services.ContainerService
	orderingService  *services.OrderingService
}

// NewContainerHandler creates a new ContainerHandler.
func NewContainerHandler(containerService *services.ContainerService, orderingService *services.OrderingService) *ContainerHandler {
	return &ContainerHandler{
		containerService: containerService,
		orderingService:  orderingService,
	}
}

// ListContainers returns the default containers followed by the user's own.
func (h *ContainerHandler) ListContainers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	containers, err := h.containerService.List(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"containers": dto.ToContainerDTOs(containers),
	})
}

// CreateContainer creates a custom container owned by the user.
func (h *ContainerHandler) CreateContainer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	type CreateContainerRequest struct {
		Title string `json:"title" binding:"required"`
		Color string `json:"color"`
	}

	var req CreateContainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	container, err := h.containerService.Create(c.Request.Context(), services.CreateContainerInput{
		Title:   req.Title,
		Color:   req.Color,
		OwnerID: userID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToContainerDTO(*container))
}

// UpdateContainer renames or recolors a custom container.
func (h *ContainerHandler) UpdateContainer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	type UpdateContainerRequest struct {
		Title *string `json:"title"`
		Color *string `json:"color"`
	}

	var req UpdateContainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	container, err := h.containerService.Update(c.Request.Context(), middleware.GetIDParam(c), services.UpdateContainerInput{
		Title: req.Title,
		Color: req.Color,
	}, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToContainerDTO(*container))
}

// DeleteContainer deletes an empty custom container.
func (h *ContainerHandler) DeleteContainer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.containerService.Delete(c.Request.Context(), middleware.GetIDParam(c), userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Container deleted successfully",
	})
}

// ReorderContainer sets new sort indices for tasks already in the container.
func (h *ContainerHandler) ReorderContainer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.orderingService.ReorderInContainer(c.Request.Context(), middleware.GetIDParam(c), req.items(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBulkResultResponse(*result))
}
