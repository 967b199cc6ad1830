package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

// BoardService builds the read-only board projection.
type BoardService struct {
	containerRepo repository.ContainerRepository
	taskRepo      repository.TaskRepository
	clock         Clock
}

// NewBoardService creates a new BoardService.
func NewBoardService(containerRepo repository.ContainerRepository, taskRepo repository.TaskRepository) *BoardService {
	return &BoardService{
		containerRepo: containerRepo,
		taskRepo:      taskRepo,
		clock:         systemClock,
	}
}

// SetClock replaces the time source.
func (s *BoardService) SetClock(c Clock) {
	s.clock = c
}

// AssigneeBadge is an assignee rendered on a card.
type AssigneeBadge struct {
	UserID uint64
	Name   string
	Color  string
}

// BoardTask is a task with its display fields.
type BoardTask struct {
	Task         models.Task
	DueDateLabel string
	Assignees    []AssigneeBadge
}

// BoardColumn is a container and its tasks in sort order.
type BoardColumn struct {
	Container models.Container
	Tasks     []BoardTask
}

// Board returns the requester's visible containers with their visible tasks.
// Containers the requester cannot see but that hold a task assigned to them
// are appended after the visible ones.
func (s *BoardService) Board(ctx context.Context, requesterID uint64) ([]BoardColumn, error) {
	containers, err := s.containerRepo.ListVisible(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{VisibleTo: requesterID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	byContainer := make(map[uint64][]models.Task, len(containers))
	for _, task := range tasks {
		byContainer[task.ContainerID] = append(byContainer[task.ContainerID], task)
	}

	known := make(map[uint64]struct{}, len(containers))
	for _, c := range containers {
		known[c.ID] = struct{}{}
	}
	var foreign []uint64
	for id := range byContainer {
		if _, ok := known[id]; !ok {
			foreign = append(foreign, id)
		}
	}
	if len(foreign) > 0 {
		extra, err := s.containerRepo.FindByIDs(ctx, foreign)
		if err != nil {
			return nil, fmt.Errorf("failed to load containers: %w", err)
		}
		sort.Slice(extra, func(i, j int) bool { return extra[i].ID < extra[j].ID })
		containers = append(containers, extra...)
	}

	now := wallTime(s.clock)
	columns := make([]BoardColumn, len(containers))
	for i, container := range containers {
		column := byContainer[container.ID]
		sort.SliceStable(column, func(a, b int) bool {
			if column[a].SortIndex != column[b].SortIndex {
				return column[a].SortIndex < column[b].SortIndex
			}
			return column[a].ID < column[b].ID
		})

		cards := make([]BoardTask, len(column))
		for j, task := range column {
			cards[j] = boardTask(task, now)
		}
		columns[i] = BoardColumn{Container: container, Tasks: cards}
	}

	return columns, nil
}

func boardTask(task models.Task, now time.Time) BoardTask {
	badges := make([]AssigneeBadge, len(task.Assignments))
	for i, a := range task.Assignments {
		name := a.User.DisplayName()
		badges[i] = AssigneeBadge{
			UserID: a.UserID,
			Name:   name,
			Color:  utils.AssigneeColor(name),
		}
	}
	return BoardTask{
		Task:         task,
		DueDateLabel: utils.DueDateLabel(task.DueDate, now),
		Assignees:    badges,
	}
}
