package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/ordering"
	"github.com/yukikurage/kanban-board-api/internal/policy"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// taskPreloads are the relations returned with a single task.
var taskPreloads = []string{"Creator", "Container", "Assignments", "Assignments.User", "Attachments"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	containers  *ContainerService
	aiService   *AIService
	clock       Clock
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	containers *ContainerService,
	aiService *AIService,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		containers:  containers,
		aiService:   aiService,
		clock:       systemClock,
	}
}

// SetClock replaces the time source.
func (s *TaskService) SetClock(c Clock) {
	s.clock = c
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID     uint64
	Status     *string
	Priority   *models.TaskPriority
	AssigneeID *uint64
	Query      string
	Pagination *utils.PaginationParams
}

// AttachmentInput describes a file linked to a task
type AttachmentInput struct {
	Name string
	URL  string
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ContainerID uint64
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssigneeIDs []uint64
	SortIndex   *float64
	Attachments []AttachmentInput
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	ContainerID  *uint64
	SortIndex    *float64
	AssigneeIDs  *[]uint64
}

// List returns the tasks created by or assigned to the user, newest first
func (s *TaskService) List(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, 0, ErrInvalidPriority
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		VisibleTo:  input.UserID,
		Status:     input.Status,
		Priority:   input.Priority,
		AssigneeID: input.AssigneeID,
		Query:      strings.TrimSpace(input.Query),
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Get returns a task the requester created or is assigned to
func (s *TaskService) Get(ctx context.Context, taskID, requesterID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}
	if !policy.Allows(task, requesterID, policy.CanView) {
		return nil, ErrTaskAccessDenied
	}
	return task, nil
}

// Create creates a task in a container visible to the requester
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput, requesterID uint64) (*models.Task, error) {
	title, err := validateTaskTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.ContainerID == 0 {
		return nil, ErrContainerRequired
	}
	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityNormal
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if input.SortIndex != nil && !ordering.Valid(*input.SortIndex) {
		return nil, ErrInvalidSortIndex
	}
	attachments, err := buildAttachments(input.Attachments)
	if err != nil {
		return nil, err
	}

	container, err := s.containers.FindVisible(ctx, input.ContainerID, requesterID)
	if err != nil {
		return nil, err
	}

	assigneeIDs := uniqueUint64(input.AssigneeIDs)
	if err := s.ensureUsersExist(ctx, assigneeIDs); err != nil {
		return nil, err
	}

	sortIndex, err := s.resolveSortIndex(ctx, container.ID, input.SortIndex)
	if err != nil {
		return nil, err
	}

	assignments := make([]models.TaskAssignment, len(assigneeIDs))
	for i, id := range assigneeIDs {
		assignments[i] = models.TaskAssignment{UserID: id}
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      container.Title,
		ContainerID: container.ID,
		Priority:    priority,
		DueDate:     input.DueDate,
		SortIndex:   sortIndex,
		CreatorID:   requesterID,
		Assignments: assignments,
		Attachments: attachments,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, taskPreloads...)
}

// Update updates an existing task. Only its creator may do so.
func (s *TaskService) Update(ctx context.Context, taskID uint64, input UpdateTaskInput, requesterID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if !policy.Allows(task, requesterID, policy.CanEdit) {
		return nil, ErrNotTaskCreator
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title, err := validateTaskTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		updates["priority"] = *input.Priority
	}
	if input.ClearDueDate {
		updates["due_date"] = nil
	} else if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	if input.SortIndex != nil && !ordering.Valid(*input.SortIndex) {
		return nil, ErrInvalidSortIndex
	}
	if input.ContainerID != nil && *input.ContainerID != task.ContainerID {
		container, err := s.containers.FindVisible(ctx, *input.ContainerID, requesterID)
		if err != nil {
			return nil, err
		}
		sortIndex, err := s.resolveSortIndex(ctx, container.ID, input.SortIndex)
		if err != nil {
			return nil, err
		}
		updates["container_id"] = container.ID
		updates["status"] = container.Title
		updates["sort_index"] = sortIndex
	} else if input.SortIndex != nil {
		updates["sort_index"] = *input.SortIndex
	}

	var assigneeIDs []uint64
	if input.AssigneeIDs != nil {
		assigneeIDs = uniqueUint64(*input.AssigneeIDs)
		if err := s.ensureUsersExist(ctx, assigneeIDs); err != nil {
			return nil, err
		}
	}

	if len(updates) > 0 {
		rows, err := s.taskRepo.UpdateByCreator(ctx, taskID, requesterID, updates)
		if err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		if rows == 0 {
			return nil, ErrTaskNotFound
		}
	}

	if input.AssigneeIDs != nil {
		if err := s.taskRepo.ReplaceAssignees(ctx, taskID, assigneeIDs); err != nil {
			return nil, fmt.Errorf("failed to update assignees: %w", err)
		}
	}

	return s.taskRepo.FindByID(ctx, taskID, taskPreloads...)
}

// Delete deletes a task if the requester is its creator. Sessions still
// running on the task are closed first so their time is accounted for and
// their users can start tracking elsewhere.
func (s *TaskService) Delete(ctx context.Context, taskID, requesterID uint64) error {
	task, err := s.findTask(ctx, taskID, "Assignments")
	if err != nil {
		return err
	}
	if !policy.Allows(task, requesterID, policy.CanDelete) {
		return ErrNotTaskCreator
	}

	active, err := s.sessionRepo.ListActiveByTasks(ctx, []uint64{taskID})
	if err != nil {
		return fmt.Errorf("failed to find running sessions: %w", err)
	}
	now := wallTime(s.clock)
	for i := range active {
		err := closeSession(ctx, s.sessionRepo, s.taskRepo, &active[i], now)
		if err != nil && !errors.Is(err, ErrNoActiveSession) {
			return err
		}
	}
	if len(active) == 0 {
		if err := syncTimeTracked(ctx, s.taskRepo, taskID); err != nil {
			return err
		}
	}

	rows, err := s.taskRepo.DeleteByCreator(ctx, taskID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text        string
	ContainerID uint64
	Create      bool
	CreatorID   uint64
}

// GenerateTasks uses AI to extract tasks from text. When input.Create is set
// the suggestions are created at the end of the given container.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, []models.Task, error) {
	if s.aiService == nil {
		return nil, nil, ErrAIServiceNotConfigured
	}
	if input.Create {
		if _, err := s.containers.FindVisible(ctx, input.ContainerID, input.CreatorID); err != nil {
			return nil, nil, err
		}
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	validTasks, err := filterGeneratedTasks(aiTasks, s.clock())
	if err != nil {
		return nil, nil, err
	}
	if !input.Create {
		return validTasks, nil, nil
	}

	created := make([]models.Task, 0, len(validTasks))
	for _, g := range validTasks {
		task, err := s.Create(ctx, CreateTaskInput{
			Title:       g.Title,
			Description: g.Description,
			ContainerID: input.ContainerID,
			Priority:    g.Priority,
			DueDate:     g.DueDate,
		}, input.CreatorID)
		if err != nil {
			return validTasks, created, err
		}
		created = append(created, *task)
	}

	return validTasks, created, nil
}

func filterGeneratedTasks(aiTasks []GeneratedTask, now time.Time) ([]GeneratedTask, error) {
	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := now.Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" || utf8.RuneCountInString(aiTask.Title) > constants.MaxTaskTitleLength {
			continue
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityNormal
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// findTask loads a task and maps a missing record to ErrTaskNotFound
func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	return findTask(ctx, s.taskRepo, taskID, preload...)
}

// resolveSortIndex returns the requested index, or one placing the task after
// the last task of the container
func (s *TaskService) resolveSortIndex(ctx context.Context, containerID uint64, requested *float64) (float64, error) {
	return appendIndex(ctx, s.taskRepo, containerID, requested)
}

// ensureUsersExist verifies every id names an existing user
func (s *TaskService) ensureUsersExist(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.userRepo.CountByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(ids) {
		return ErrInvalidTaskAssignee
	}
	return nil
}

func findTask(ctx context.Context, repo repository.TaskRepository, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := repo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func appendIndex(ctx context.Context, repo repository.TaskRepository, containerID uint64, requested *float64) (float64, error) {
	if requested != nil {
		return *requested, nil
	}
	last, ok, err := repo.MaxSortIndex(ctx, containerID)
	if err != nil {
		return 0, fmt.Errorf("failed to read container order: %w", err)
	}
	if !ok {
		return constants.SortIndexStep, nil
	}
	return ordering.After(last), nil
}

func validateTaskTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxTaskTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func buildAttachments(inputs []AttachmentInput) ([]models.TaskAttachment, error) {
	attachments := make([]models.TaskAttachment, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		url := strings.TrimSpace(in.URL)
		if name == "" || url == "" || utf8.RuneCountInString(name) > constants.MaxAttachmentNameLength {
			return nil, ErrInvalidAttachment
		}
		attachments = append(attachments, models.TaskAttachment{Name: name, URL: url})
	}
	return attachments, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
