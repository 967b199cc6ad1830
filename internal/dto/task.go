package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	User UserDTO `json:"user"`
}

// AttachmentDTO represents a file linked to a task
type AttachmentDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                 uint64              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Status             string              `json:"status"`
	ContainerID        uint64              `json:"container_id"`
	SortIndex          float64             `json:"sort_index"`
	Priority           models.TaskPriority `json:"priority"`
	DueDate            *time.Time          `json:"due_date"`
	TimeTracked        int64               `json:"time_tracked"`
	FormattedTimeTotal string              `json:"formatted_time_tracked"`
	CreatorID          uint64              `json:"creator_id"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Creator            *UserDTO            `json:"creator,omitempty"`
	Container          *ContainerDTO       `json:"container,omitempty"`
	Assignments        []TaskAssignmentDTO `json:"assignments,omitempty"`
	Attachments        []AttachmentDTO     `json:"attachments,omitempty"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	ContainerID uint64              `json:"container_id"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	CreatorID   uint64              `json:"creator_id"`
	AssigneeIDs []uint64            `json:"assignee_ids"`
	Creator     *UserDTO            `json:"creator,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskListItemDTO        `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		Status:             task.Status,
		ContainerID:        task.ContainerID,
		SortIndex:          task.SortIndex,
		Priority:           task.Priority,
		DueDate:            task.DueDate,
		TimeTracked:        task.TimeTracked,
		FormattedTimeTotal: utils.FormatDuration(task.TimeTracked),
		CreatorID:          task.CreatorID,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	// Include container if preloaded
	if task.Container.ID != 0 {
		container := ToContainerDTO(task.Container)
		dto.Container = &container
	}

	// Include assignments if preloaded
	if len(task.Assignments) > 0 {
		dto.Assignments = make([]TaskAssignmentDTO, len(task.Assignments))
		for i, assignment := range task.Assignments {
			dto.Assignments[i] = TaskAssignmentDTO{
				User: ToUserDTO(assignment.User),
			}
		}
	}

	if len(task.Attachments) > 0 {
		dto.Attachments = make([]AttachmentDTO, len(task.Attachments))
		for i, a := range task.Attachments {
			dto.Attachments[i] = AttachmentDTO{ID: a.ID, Name: a.Name, URL: a.URL}
		}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	dto := TaskListItemDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		ContainerID: task.ContainerID,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CreatorID:   task.CreatorID,
		AssigneeIDs: task.AssigneeIDs(),
		CreatedAt:   task.CreatedAt,
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
