package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

type attachmentRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

// ListTasks returns the tasks the current user created or is assigned to
// Can filter by status, priority, assignee_id and q
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	assigneeID, ok := optionalUint64Query(c, "assignee_id")
	if !ok {
		return
	}

	input := services.ListTasksInput{
		UserID:     userID,
		AssigneeID: assigneeID,
		Query:      c.Query("q"),
	}
	if status, exists := c.GetQuery("status"); exists {
		input.Status = &status
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TaskPriority(priority)
		input.Priority = &p
	}

	params := utils.GetPaginationParams(c)
	input.Pagination = &params

	tasks, total, err := h.taskService.List(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), middleware.GetIDParam(c), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		ContainerID uint64              `json:"container_id" binding:"required"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
		AssigneeIDs []uint64            `json:"assignee_ids"`
		SortIndex   *float64            `json:"sort_index"`
		Attachments []attachmentRequest `json:"attachments" binding:"dive"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	attachments := make([]services.AttachmentInput, len(req.Attachments))
	for i, a := range req.Attachments {
		attachments[i] = services.AttachmentInput{Name: a.Name, URL: a.URL}
	}

	task, err := h.taskService.Create(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ContainerID: req.ContainerID,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
		SortIndex:   req.SortIndex,
		Attachments: attachments,
	}, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *time.Time           `json:"due_date"`
		ContainerID *uint64              `json:"container_id"`
		SortIndex   *float64             `json:"sort_index"`
		AssigneeIDs *[]uint64            `json:"assignee_ids"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Parse raw JSON to detect an explicit null due_date
	var rawReq map[string]any
	if err := c.ShouldBindBodyWith(&rawReq, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	dueDate, sent := rawReq["due_date"]

	task, err := h.taskService.Update(c.Request.Context(), middleware.GetIDParam(c), services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: sent && dueDate == nil,
		ContainerID:  req.ContainerID,
		SortIndex:    req.SortIndex,
		AssigneeIDs:  req.AssigneeIDs,
	}, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), middleware.GetIDParam(c), userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// GenerateTasks generates task suggestions from text using AI. With
// create set, the suggestions are added to the given container.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text        string `json:"text" binding:"required"`
		ContainerID uint64 `json:"container_id"`
		Create      bool   `json:"create"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.Create && req.ContainerID == 0 {
		apierrors.BadRequest(c, "container_id is required when create is set")
		return
	}

	generated, created, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text:        req.Text,
		ContainerID: req.ContainerID,
		Create:      req.Create,
		CreatorID:   userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAIServiceNotConfigured):
			apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
			apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeOperationFailed, err.Error()))
		default:
			apierrors.Respond(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":   generated,
		"created": dto.ToTaskDTOs(created),
	})
}
